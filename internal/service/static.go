package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"styleaudit/internal/extractor"
	"styleaudit/internal/log"
	"styleaudit/internal/model"
	"styleaudit/internal/rules"
)

// AuditHTML audits markup without a browser. Only inline styles are known,
// so layout-dependent and computed-color findings are best effort.
func AuditHTML(name string, r io.Reader, engine *rules.Engine, root string, filter extractor.Filter) model.PageAuditResult {
	start := time.Now()
	res := model.PageAuditResult{
		Name:   name,
		Path:   name,
		Status: model.StatusExtractingSnapshot,
		Issues: []model.Issue{},
	}

	snaps, err := extractor.FromHTML(r, root, filter, engine.Tokens())
	if err != nil {
		res.FailedAt = res.Status
		res.Status = model.StatusErrored
		res.Error = err.Error()
		res.Duration = time.Since(start)
		log.Logger.Warn("static audit failed", zap.String("file", name), zap.Error(err))
		return res
	}

	res.Status = model.StatusEvaluatingRules
	if issues := engine.Evaluate(snaps); issues != nil {
		res.Issues = issues
	}
	res.IssueCount = len(res.Issues)
	res.Status = model.StatusDone
	res.Duration = time.Since(start)
	return res
}

// AuditFiles runs AuditHTML over each file. Unreadable files are reported
// as errored pages.
func AuditFiles(paths []string, engine *rules.Engine, root string, filter extractor.Filter) []model.PageAuditResult {
	results := make([]model.PageAuditResult, 0, len(paths))
	for _, p := range paths {
		results = append(results, auditFile(p, engine, root, filter))
	}
	return results
}

func auditFile(path string, engine *rules.Engine, root string, filter extractor.Filter) model.PageAuditResult {
	f, err := os.Open(path)
	if err != nil {
		return model.PageAuditResult{
			Name:     pageName(path),
			Path:     path,
			Status:   model.StatusErrored,
			FailedAt: model.StatusNavigating,
			Error:    fmt.Sprintf("open: %v", err),
			Issues:   []model.Issue{},
		}
	}
	defer f.Close()

	res := AuditHTML(pageName(path), f, engine, root, filter)
	res.Path = path
	return res
}

func pageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
