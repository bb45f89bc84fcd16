package classify

import "strings"

// defaultImportSuffixes are legacy import paths the SDK's implicit
// imports already supply; a project declaring one explicitly is just
// carrying forward template boilerplate.
var defaultImportSuffixes = []string{
	"CSharp.targets",
	"VisualBasic.targets",
	"FSharp.targets",
	"Common.targets",
	"Common.props",
}

// IsDefaultImport reports whether an <Import> project path is one of the
// legacy default imports the SDK already supplies implicitly.
func IsDefaultImport(path string) bool {
	for _, suffix := range defaultImportSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
