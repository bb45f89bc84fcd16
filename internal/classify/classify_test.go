package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPropertyRemove(t *testing.T) {
	assert.Equal(t, Remove, ClassifyProperty("ProjectGuid"))
	assert.Equal(t, Remove, ClassifyProperty("projectguid"))
}

func TestClassifyPropertyPreserve(t *testing.T) {
	assert.Equal(t, Preserve, ClassifyProperty("LangVersion"))
}

func TestClassifyPropertyExtractShared(t *testing.T) {
	assert.Equal(t, ExtractShared, ClassifyProperty("Company"))
}

func TestClassifyPropertyUnknown(t *testing.T) {
	assert.Equal(t, Unknown, ClassifyProperty("SomeRandomCustomProperty"))
}

func TestIsImplicitSourceExtension(t *testing.T) {
	assert.True(t, IsImplicitSourceExtension(".cs"))
	assert.True(t, IsImplicitSourceExtension(".CS"))
	assert.False(t, IsImplicitSourceExtension(".resx"))
}

func TestIsProblematicTarget(t *testing.T) {
	assert.True(t, IsProblematicTarget("BeforeBuild"))
	assert.False(t, IsProblematicTarget("MyCustomTarget"))
}

func TestIsFrameworkIntrinsic(t *testing.T) {
	assert.True(t, IsFrameworkIntrinsic("System.Core", "net472"))
	assert.True(t, IsFrameworkIntrinsic("system.core", "net472"))
	assert.False(t, IsFrameworkIntrinsic("Newtonsoft.Json", "net472"))
}
