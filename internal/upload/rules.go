package upload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"sticky-uploads/internal/config"
)

// Policy holds compiled acceptance rules. A rule's expression is evaluated
// against {name, ext, size, content_type}; evaluating to true rejects the
// upload with the rule's message.
type Policy struct {
	rules []compiledRule
}

type compiledRule struct {
	prog    *vm.Program
	message string
}

func NewPolicy(rules []config.UploadRule) (*Policy, error) {
	p := &Policy{}
	for _, r := range rules {
		prog, err := expr.Compile(r.Expression, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Expression, err)
		}
		msg := r.Message
		if msg == "" {
			msg = "Upload rejected"
		}
		p.rules = append(p.rules, compiledRule{prog: prog, message: msg})
	}
	return p, nil
}

// Check runs every rule and returns the violations, or nil when the upload
// is acceptable.
func (p *Policy) Check(name string, size int64, contentType string) []ErrorDetail {
	if len(p.rules) == 0 {
		return nil
	}

	env := map[string]any{
		"name":         name,
		"ext":          strings.TrimPrefix(filepath.Ext(name), "."),
		"size":         size,
		"content_type": contentType,
	}

	var details []ErrorDetail
	for _, r := range p.rules {
		result, err := expr.Run(r.prog, env)
		if err != nil {
			details = append(details, ErrorDetail{Rule: "expression", Message: fmt.Sprintf("rule evaluation error: %v", err)})
			continue
		}
		if violated, ok := result.(bool); ok && violated {
			details = append(details, ErrorDetail{Rule: "expression", Message: r.message})
		}
	}
	return details
}
