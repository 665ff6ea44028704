package rules

import (
	"sync"

	"styleaudit/internal/model"
)

const defaultWorkers = 8

// Options configures an Engine. Zero values fall back to the default rule
// set, the default token table and a small worker pool.
type Options struct {
	Rules       []Rule
	Tokens      *TokenTable
	MinContrast float64
	Workers     int
}

type Engine struct {
	rules   []Rule
	env     Env
	workers int
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		rules:   opts.Rules,
		env:     Env{Tokens: DefaultTokens(), MinContrast: opts.MinContrast},
		workers: opts.Workers,
	}
	if len(e.rules) == 0 {
		e.rules = DefaultRules()
	}
	if opts.Tokens != nil {
		e.env.Tokens = *opts.Tokens
	}
	if e.workers <= 0 {
		e.workers = defaultWorkers
	}
	return e
}

// Tokens exposes the table so the extractor can resolve surface tokens with
// the same vocabulary the rules use.
func (e *Engine) Tokens() TokenTable {
	return e.env.Tokens
}

type elementResult struct {
	pos    int
	issues []model.Issue
}

// Evaluate runs every rule against every snapshot. Elements are spread over
// a worker pool; the result is ordered by document position, then by rule
// order, and deduplicated on (element, kind).
func (e *Engine) Evaluate(snaps []model.StyleSnapshot) []model.Issue {
	if len(snaps) == 0 {
		return nil
	}

	byIndex := make(map[int]*model.StyleSnapshot, len(snaps))
	for i := range snaps {
		byIndex[snaps[i].Index] = &snaps[i]
	}

	numWorkers := e.workers
	if len(snaps) < numWorkers {
		numWorkers = len(snaps)
	}

	jobs := make(chan int, len(snaps))
	results := make(chan elementResult, len(snaps))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				s := snaps[pos]
				results <- elementResult{pos: pos, issues: e.evaluateOne(s, byIndex[s.ParentIndex])}
			}
		}()
	}

	for pos := range snaps {
		jobs <- pos
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	perElement := make([][]model.Issue, len(snaps))
	for r := range results {
		perElement[r.pos] = r.issues
	}

	var all []model.Issue
	for _, issues := range perElement {
		all = append(all, issues...)
	}
	return Dedup(all)
}

func (e *Engine) evaluateOne(s model.StyleSnapshot, parent *model.StyleSnapshot) []model.Issue {
	var issues []model.Issue
	for _, r := range e.rules {
		details, fired := r.Check(s, parent, e.env)
		if !fired {
			continue
		}
		issues = append(issues, model.Issue{
			Kind:         r.Kind,
			Severity:     r.Severity,
			Element:      s.Descriptor(),
			ElementIndex: s.Index,
			Details:      details,
		})
	}
	return issues
}

type dedupKey struct {
	element int
	kind    model.IssueKind
}

// Dedup keeps the first issue for each (element, kind) pair. Elements are
// identified by snapshot index; the descriptor alone is not unique.
func Dedup(issues []model.Issue) []model.Issue {
	if len(issues) == 0 {
		return issues
	}
	seen := make(map[dedupKey]bool, len(issues))
	out := make([]model.Issue, 0, len(issues))
	for _, is := range issues {
		k := dedupKey{element: is.ElementIndex, kind: is.Kind}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, is)
	}
	return out
}
