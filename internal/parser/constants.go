package parser

const (
	// ExportedConstructorPrefix names the public constructor of T: NewT
	ExportedConstructorPrefix = "New"

	// UnexportedConstructorPrefix names the private constructor of T: newT
	UnexportedConstructorPrefix = "new"

	goFileSuffix   = ".go"
	testFileSuffix = "_test.go"
)
