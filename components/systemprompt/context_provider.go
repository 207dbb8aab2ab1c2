package systemprompt

// ContextProvider contributes an extra titled section to the generated
// system instruction (e.g. today's date, the covered ticker universe).
type ContextProvider interface {
	Title() string
	Info() string
}

// StaticProvider is a ContextProvider with fixed content.
type StaticProvider struct {
	title string
	info  string
}

// NewStaticProvider returns a ContextProvider serving fixed content.
func NewStaticProvider(title, info string) *StaticProvider {
	return &StaticProvider{title: title, info: info}
}

func (p StaticProvider) Title() string {
	return p.title
}

func (p StaticProvider) Info() string {
	return p.info
}
