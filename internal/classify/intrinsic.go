package classify

import "strings"

// frameworkIntrinsicAssemblies are assembly names shipped as part of the
// target framework itself (the legacy reference manager added these with
// no hint path); the SDK references them implicitly, so a bare <Reference>
// to one is redundant once there is no hint path attached.
var frameworkIntrinsicAssemblies = []string{
	"mscorlib",
	"System",
	"System.Core",
	"System.Data",
	"System.Xml",
	"System.Xml.Linq",
	"System.Net.Http",
	"System.Runtime.Serialization",
	"System.ServiceModel",
	"System.Configuration",
	"System.Drawing",
	"System.Windows.Forms",
	"Microsoft.CSharp",
}

var intrinsicIndex = foldIndex(frameworkIntrinsicAssemblies)

// IsFrameworkIntrinsic reports whether assemblyName is a known
// framework-shipped assembly for framework. Every legacy framework moniker
// carries the same core set today, so framework is currently unused beyond
// documenting the call site's intent; a future moniker-specific table would
// key off it.
func IsFrameworkIntrinsic(assemblyName, framework string) bool {
	_ = framework
	return intrinsicIndex[strings.ToLower(assemblyName)] != ""
}
