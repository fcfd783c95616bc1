package shape

// Logger matches the component-tagged logger used across the binaries.
type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(component, format string, args ...interface{})  {}
func (nopLogger) Errorf(component, format string, args ...interface{}) {}
