// Package extractor mines question/answer pairs from a time-ordered
// conversation.
//
// Each eligible anchor is linked to the earliest substantive reply from
// another sender inside a mode-specific window. Modes are tried in priority
// order: direct, problem/solution, tutorial. The scan is a bounded linear
// window over the message slice.
package extractor

import (
	"strings"
	"time"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/pipeline/cues"
)

// Extractor emits candidate pairs. It is stateless and safe for concurrent use.
type Extractor struct {
	cfg domain.ExtractionConfig
}

// New creates an Extractor.
func New(cfg domain.ExtractionConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// anchorKind records which modes an anchor qualifies for.
type anchorKind struct {
	direct   bool
	problem  bool
	tutorial bool
}

func (k anchorKind) any() bool {
	return k.direct || k.problem || k.tutorial
}

// Extract returns the candidate pairs of one conversation in anchor order.
func (e *Extractor) Extract(conversationID string, msgs []domain.NormalizedMessage) []domain.CandidatePair {
	used := make([]bool, len(msgs))
	var pairs []domain.CandidatePair

	for i := range msgs {
		if used[i] {
			continue
		}
		kind, ok := e.anchor(msgs[i])
		if !ok {
			continue
		}
		pair, consumed, ok := e.link(msgs, i, kind, used)
		if !ok {
			continue
		}
		for _, j := range consumed {
			used[j] = true
		}
		pair.ConversationID = conversationID
		pairs = append(pairs, pair)
	}
	return pairs
}

// anchor classifies a message as a potential question.
func (e *Extractor) anchor(m domain.NormalizedMessage) (anchorKind, bool) {
	if m.IsNoise || m.Type != domain.MessageTypeText || e.cfg.IsAdvisor(m.Sender) {
		return anchorKind{}, false
	}
	k := anchorKind{
		direct:   cues.IsInterrogative(m.Content),
		problem:  cues.IsProblemReport(m.Content),
		tutorial: cues.IsTutorialRequest(m.Content),
	}
	return k, k.any()
}

// scanWindow is the widest window among the modes the anchor qualifies for.
func (e *Extractor) scanWindow(k anchorKind) time.Duration {
	var w time.Duration
	if k.direct && e.cfg.DirectWindow > w {
		w = e.cfg.DirectWindow
	}
	if k.problem && e.cfg.ProblemWindow > w {
		w = e.cfg.ProblemWindow
	}
	if k.tutorial && e.cfg.TutorialWindow > w {
		w = e.cfg.TutorialWindow
	}
	return w
}

// link scans forward from anchor i and returns the pair plus the indices it consumed.
func (e *Extractor) link(msgs []domain.NormalizedMessage, i int, k anchorKind, used []bool) (domain.CandidatePair, []int, bool) {
	a := msgs[i]
	maxWindow := e.scanWindow(k)
	last := i + e.cfg.SearchDepth
	if last >= len(msgs) {
		last = len(msgs) - 1
	}

	var clarifications, counters []int
	replied := false
	firstReply, stepReply := -1, -1

	for j := i + 1; j <= last; j++ {
		m := msgs[j]
		if m.Timestamp.Sub(a.Timestamp) > maxWindow {
			break
		}
		if used[j] || m.IsNoise || m.Type != domain.MessageTypeText {
			continue
		}
		if m.Sender == a.Sender {
			if !replied {
				clarifications = append(clarifications, j)
			}
			continue
		}
		replied = true
		if cues.EndsWithQuestion(m.Content) {
			// a counter-question is not an answer
			counters = append(counters, j)
			continue
		}
		if firstReply < 0 {
			firstReply = j
		}
		if k.tutorial && stepReply < 0 && cues.HasSteps(m.Content) {
			stepReply = j
		}
		if !k.tutorial || stepReply >= 0 {
			break
		}
	}

	mode, answer := e.choose(a, msgs, k, firstReply, stepReply)
	if answer < 0 {
		return domain.CandidatePair{}, nil, false
	}

	question := a.Content
	consumed := []int{i}
	for _, c := range clarifications {
		if c < answer {
			question += " " + msgs[c].Content
			consumed = append(consumed, c)
		}
	}
	// Only the answerer's own counter-questions belong to this exchange.
	// A question from anyone else stays free to anchor its own pair.
	for _, c := range counters {
		if c < answer && msgs[c].Sender == msgs[answer].Sender {
			consumed = append(consumed, c)
		}
	}
	consumed = append(consumed, answer)

	r := msgs[answer]
	return domain.CandidatePair{
		Question:     question,
		Answer:       r.Content,
		Asker:        a.Sender,
		Advisor:      r.Sender,
		QuestionTime: a.Timestamp,
		AnswerTime:   r.Timestamp,
		Mode:         mode,
		WindowSpan:   e.cfg.Window(mode),
		Context:      e.context(msgs, i, answer),
	}, consumed, true
}

// choose applies mode priority. Tutorial only wins when neither direct nor
// problem/solution links inside their own windows.
func (e *Extractor) choose(a domain.NormalizedMessage, msgs []domain.NormalizedMessage, k anchorKind, firstReply, stepReply int) (domain.ExtractionMode, int) {
	if firstReply >= 0 {
		gap := msgs[firstReply].Timestamp.Sub(a.Timestamp)
		if k.direct && gap <= e.cfg.DirectWindow {
			return domain.ModeDirect, firstReply
		}
		if k.problem && gap <= e.cfg.ProblemWindow {
			return domain.ModeProblemSolution, firstReply
		}
	}
	if k.tutorial && stepReply >= 0 && msgs[stepReply].Timestamp.Sub(a.Timestamp) <= e.cfg.TutorialWindow {
		return domain.ModeTutorial, stepReply
	}
	return "", -1
}

// context formats the non-noise neighbours of the pair.
func (e *Extractor) context(msgs []domain.NormalizedMessage, question, answer int) []string {
	var before []string
	for j := question - 1; j >= 0 && len(before) < e.cfg.ContextBefore; j-- {
		if !msgs[j].IsNoise {
			before = append(before, format(msgs[j]))
		}
	}
	out := make([]string, 0, len(before)+e.cfg.ContextAfter)
	for j := len(before) - 1; j >= 0; j-- {
		out = append(out, before[j])
	}
	added := 0
	for j := answer + 1; j < len(msgs) && added < e.cfg.ContextAfter; j++ {
		if !msgs[j].IsNoise {
			out = append(out, format(msgs[j]))
			added++
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func format(m domain.NormalizedMessage) string {
	return strings.TrimSpace(m.Sender) + ": " + m.Content
}
