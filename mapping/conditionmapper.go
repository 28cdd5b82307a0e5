package mapping

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharedtable/mtdynamo/mterror"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ConditionMapper rewrites the expressions carried by a request so that
// every reference to a mapped key attribute uses the physical column name,
// and every value placeholder compared against a context-aware key carries
// the tenant-encoded form.
type ConditionMapper struct {
	tm *TableMapping
}

// Apply rewrites the request's expressions against every mapped attribute,
// table keys and secondary-index keys alike. An update expression that
// writes an index key must address the physical index column and carry the
// tenant-encoded value, or the stored column goes stale.
func (m *ConditionMapper) Apply(ctx context.Context, req RequestWrapper) error {
	return m.applyForKeys(ctx, req, m.tm.writeKeys)
}

// applyForKeys rewrites primary expression, filter expression and the legacy
// condition map against the given key mappings (the target index's key
// mappings for query and scan).
func (m *ConditionMapper) applyForKeys(ctx context.Context, req RequestWrapper, keys map[string]FieldMapping) error {
	state := &rewriteState{
		referenced: make(map[string]bool),
		encoded:    make(map[string]bool),
	}

	primary, err := req.PrimaryExpression()
	if err == nil && primary != nil && *primary != "" {
		rewritten, rerr := m.rewriteExpression(ctx, req, *primary, keys, state)
		if rerr != nil {
			return rerr
		}
		if serr := req.SetPrimaryExpression(rewritten); serr != nil {
			return serr
		}
	}

	filter, err := req.FilterExpression()
	if err == nil && filter != nil && *filter != "" {
		rewritten, rerr := m.rewriteExpression(ctx, req, *filter, keys, state)
		if rerr != nil {
			return rerr
		}
		if serr := req.SetFilterExpression(rewritten); serr != nil {
			return serr
		}
	}

	return m.rewriteLegacy(ctx, req, keys, state)
}

type rewriteState struct {
	// referenced records virtual key attributes seen in expression form, to
	// detect conflicts with the legacy condition map.
	referenced map[string]bool
	// encoded records value placeholders already tenant-encoded, so a
	// placeholder shared between expressions is not encoded twice.
	encoded map[string]bool
	// aliasSeq seeds fresh placeholder generation.
	aliasSeq int
}

func (m *ConditionMapper) rewriteExpression(ctx context.Context, req RequestWrapper, expr string, keys map[string]FieldMapping, state *rewriteState) (string, error) {
	for _, field := range sortedFieldNames(keys) {
		fm := keys[field]

		// References through the alias table: repoint the alias at the
		// physical column. A previous pass may already have repointed it.
		var refs []string
		names := req.ExpressionAttributeNames()
		for _, alias := range sortedAliases(names) {
			switch names[alias] {
			case field:
				req.PutExpressionAttributeName(alias, fm.Target.Name)
				refs = append(refs, alias)
			case fm.Target.Name:
				refs = append(refs, alias)
			}
		}

		// Literal references in the expression text: substitute a fresh
		// placeholder to avoid colliding with caller-chosen names.
		literal := literalPattern(field)
		if literal.MatchString(expr) {
			alias := m.freshAlias(req, state)
			req.PutExpressionAttributeName(alias, fm.Target.Name)
			for literal.MatchString(expr) {
				expr = literal.ReplaceAllString(expr, "${1}"+alias+"${2}")
			}
			refs = append(refs, alias)
		}

		if len(refs) == 0 {
			continue
		}
		state.referenced[field] = true

		if !fm.ContextAware {
			continue
		}
		// Tenant-encode every value placeholder compared for equality
		// against this key.
		for _, ref := range refs {
			cmp := regexp.MustCompile(regexp.QuoteMeta(ref) + `\s*=\s*(:[A-Za-z0-9_]+)`)
			for _, match := range cmp.FindAllStringSubmatch(expr, -1) {
				placeholder := match[1]
				if state.encoded[placeholder] {
					continue
				}
				value, ok := req.ExpressionAttributeValues()[placeholder]
				if !ok {
					return "", mterror.Newf(mterror.KindInvalidArgument, "expression references undefined value placeholder %s", placeholder)
				}
				encoded, err := m.tm.fieldMapper.Apply(ctx, fm, value)
				if err != nil {
					return "", err
				}
				req.PutExpressionAttributeValue(placeholder, encoded)
				state.encoded[placeholder] = true
			}
		}
	}
	return expr, nil
}

func (m *ConditionMapper) rewriteLegacy(ctx context.Context, req RequestWrapper, keys map[string]FieldMapping, state *rewriteState) error {
	legacy, err := req.LegacyExpression()
	if err != nil || len(legacy) == 0 {
		// Requests without a legacy condition slot have nothing to rewrite.
		return nil
	}
	out := make(map[string]types.Condition, len(legacy))
	for _, attr := range sortedConditionNames(legacy) {
		cond := legacy[attr]
		fm, ok := keys[attr]
		if !ok {
			out[attr] = cond
			continue
		}
		if state.referenced[attr] {
			return mterror.Newf(mterror.KindInvalidArgument,
				"attribute %q appears in both a legacy condition and an expression", attr)
		}
		if fm.ContextAware && cond.ComparisonOperator == types.ComparisonOperatorEq && len(cond.AttributeValueList) == 1 {
			encoded, aerr := m.tm.fieldMapper.Apply(ctx, fm, cond.AttributeValueList[0])
			if aerr != nil {
				return aerr
			}
			cond.AttributeValueList = []types.AttributeValue{encoded}
		}
		out[fm.Target.Name] = cond
	}
	return req.SetLegacyExpression(out)
}

func (m *ConditionMapper) freshAlias(req RequestWrapper, state *rewriteState) string {
	for {
		alias := fmt.Sprintf("#mt%d", state.aliasSeq)
		state.aliasSeq++
		if _, taken := req.ExpressionAttributeNames()[alias]; !taken {
			return alias
		}
	}
}

// literalPattern matches a bare attribute name in expression text: the name
// must not be part of a longer identifier, a document path, an alias or a
// value placeholder.
func literalPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^#:A-Za-z0-9_.])` + regexp.QuoteMeta(name) + `($|[^A-Za-z0-9_.])`)
}

func sortedFieldNames(keys map[string]FieldMapping) []string {
	names := maps.Keys(keys)
	slices.Sort(names)
	return names
}

func sortedAliases(names map[string]string) []string {
	aliases := maps.Keys(names)
	slices.Sort(aliases)
	return aliases
}

func sortedConditionNames(conds map[string]types.Condition) []string {
	names := maps.Keys(conds)
	slices.Sort(names)
	return names
}
