package handler

// Pipeline assembles the steps of a route in a fixed order: authentication,
// guards, body parsing, additional steps and finally the handler. It provides
// a fluent interface, so that a route reads as its processing order.
type Pipeline struct {
	auth   Authenticator
	guards []Step
	parser Step
	steps  []Step
}

// NewPipeline creates a new empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Auth sets the authenticator for this pipeline.
func (p *Pipeline) Auth(auth Authenticator) *Pipeline {
	p.auth = auth
	return p
}

// Guard adds one or more authorization steps, run after authentication.
func (p *Pipeline) Guard(guards ...Step) *Pipeline {
	p.guards = append(p.guards, guards...)
	return p
}

// Parse sets the request body parser, run after the guards.
func (p *Pipeline) Parse(parser Step) *Pipeline {
	p.parser = parser
	return p
}

// Use adds one or more steps run right before the handler.
func (p *Pipeline) Use(steps ...Step) *Pipeline {
	p.steps = append(p.steps, steps...)
	return p
}

// Then returns the pipeline steps followed by h. The pipeline isn't modified,
// so it can be reused for several routes.
func (p *Pipeline) Then(h Step) []Step {
	steps := make([]Step, 0, len(p.guards)+len(p.steps)+3)
	if p.auth != nil {
		steps = append(steps, Authenticate(p.auth))
	}
	steps = append(steps, p.guards...)
	if p.parser != nil {
		steps = append(steps, p.parser)
	}
	steps = append(steps, p.steps...)
	steps = append(steps, h)

	return steps
}

// Handle returns a validated chain of the pipeline steps followed by h.
func (p *Pipeline) Handle(h Step) (*Chain, error) {
	return NewChain(p.Then(h)...)
}
