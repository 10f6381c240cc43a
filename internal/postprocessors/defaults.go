package postprocessors

import (
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/postprocessors/keywords"
	"github.com/custodia-labs/qamine/internal/postprocessors/sanitizer"
	"github.com/custodia-labs/qamine/internal/tokenizer"
)

// RegisterDefaults registers sanitizer and keywords. tok must be the
// index tokenizer so stored keywords are indexed terms.
//
// Options:
//
//	sanitizer: max_length (runes of question/answer, 2000), max_name_length (100)
//	keywords:  max_keywords (5)
func RegisterDefaults(r *Registry, tok *tokenizer.Tokenizer) {
	r.Register(sanitizer.Name, func(o Options) (driven.PostProcessor, error) {
		var opts []sanitizer.Option
		if n := o.Int("max_length"); n > 0 {
			opts = append(opts, sanitizer.WithMaxLength(n))
		}
		if n := o.Int("max_name_length"); n > 0 {
			opts = append(opts, sanitizer.WithMaxNameLength(n))
		}
		return sanitizer.New(opts...), nil
	})

	r.Register(keywords.Name, func(o Options) (driven.PostProcessor, error) {
		var opts []keywords.Option
		if n := o.Int("max_keywords"); n > 0 {
			opts = append(opts, keywords.WithMaxKeywords(n))
		}
		return keywords.New(tok, opts...), nil
	})
}
