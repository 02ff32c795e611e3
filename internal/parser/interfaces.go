package parser

// SourceParser turns annotated Go sources into class metadata
type SourceParser interface {
	ParseSource(filename, source string) (*Result, error)
	ParseDirectories(dirs ...string) (*Result, error)
}

var _ SourceParser = (*Parser)(nil)
