package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDictionary(t *testing.T) {
	d := NewDictionary([]string{"的"}, []string{"产品", " 使用 ", "", "ＡＰＰ"})

	assert.True(t, d.Contains("产品"))
	assert.True(t, d.Contains("使用"))
	assert.True(t, d.Contains("app"))
	assert.True(t, d.Contains("的"))
	assert.True(t, d.IsStopWord("的"))
	assert.False(t, d.IsStopWord("产品"))
	assert.Equal(t, 4, d.Len())
	assert.Equal(t, 3, d.MaxWordLen())
}

func TestDefaultDictionary(t *testing.T) {
	d := DefaultDictionary()

	assert.True(t, d.Contains("产品"))
	assert.True(t, d.Contains("优惠"))
	assert.True(t, d.IsStopWord("这个"))
	assert.GreaterOrEqual(t, d.MaxWordLen(), 4)
	assert.NotEmpty(t, DefaultWords())
	assert.NotEmpty(t, DefaultStopWords())
}

func TestParseList_SkipsComments(t *testing.T) {
	got := parseList("# comment\n a b \n\n#x y\nc")
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
