package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizer_Terms(t *testing.T) {
	tok := New(nil)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"question", "请问这个产品怎么使用？", []string{"请问", "产品", "怎么", "使用"}},
		{"pricing", "价格是多少？有没有优惠活动？", []string{"价格", "多少", "有没有", "优惠", "活动"}},
		{"mixed latin and digits", "API接口报错500", []string{"api", "接口", "报错", "500"}},
		{"full width latin", "ＡＰＩ", []string{"api"}},
		{"unknown run becomes bigrams", "蓝莓酱", []string{"蓝莓", "莓酱"}},
		{"isolated unknown char", "猫", []string{"猫"}},
		{"stop word splits unknown run", "猫的狗", []string{"猫", "狗"}},
		{"english stop words dropped", "the install guide", []string{"install", "guide"}},
		{"punctuation only", "？？！！。。", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Terms(tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizer_Kinds(t *testing.T) {
	tok := New(nil)

	tokens := tok.Tokenize("API接口报错500蓝莓")
	require.Len(t, tokens, 5)
	assert.Equal(t, KindLatin, tokens[0].Kind)
	assert.Equal(t, KindWord, tokens[1].Kind)
	assert.Equal(t, KindWord, tokens[2].Kind)
	assert.Equal(t, KindNumber, tokens[3].Kind)
	assert.Equal(t, KindBigram, tokens[4].Kind)

	assert.Equal(t, 0, tokens[0].Pos)
	assert.Equal(t, 3, tokens[1].Pos)
	assert.Equal(t, 5, tokens[2].Pos)
}

func TestTokenizer_Deterministic(t *testing.T) {
	tok := New(nil)
	text := "我的账号登录不了，提示密码错误，怎么办？"

	first := tok.Terms(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, tok.Terms(text))
	}
	assert.Equal(t, first, New(DefaultDictionary()).Terms(text))
}

func TestTokenizer_CustomDictionary(t *testing.T) {
	dict := NewDictionary(DefaultStopWords(), DefaultWords(), []string{"蓝莓酱"})
	tok := New(dict)

	assert.Equal(t, []string{"蓝莓酱"}, tok.Terms("蓝莓酱"))
}

func TestTokenizer_Frequencies(t *testing.T) {
	tok := New(nil)

	freq := tok.Frequencies("价格价格优惠")
	assert.Equal(t, 2, freq["价格"])
	assert.Equal(t, 1, freq["优惠"])
}
