package config

//go:generate go run github.com/dmarkham/enumer -type Source -trimprefix Source -transform snake -text -output source.gen.go

// Source identifies the layer a configuration value was read from. Later
// sources override earlier ones.
type Source int

const (
	SourceDefault Source = iota
	SourceFile
	SourceDotenv
	SourceEnvironment
)

func (s Source) Values() []Source {
	return SourceValues()
}
