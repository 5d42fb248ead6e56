// Package context contains the application context types.
//
// This package only exists to avoid a circular import between the app, cli and
// web server packages, otherwise these types belong in the app package.
package context
