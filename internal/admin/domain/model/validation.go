package model

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/google/cel-go/cel"
)

// Rule checks one field value and returns a message when the value is
// rejected, or "" when it is accepted.
type Rule func(value string) string

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Required rejects the empty string.
func Required() Rule {
	return func(value string) string {
		if value == "" {
			return "Required"
		}
		return ""
	}
}

// MinLen rejects values shorter than n characters.
func MinLen(n int) Rule {
	return func(value string) string {
		if utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("Enter at least %d characters", n)
		}
		return ""
	}
}

// MaxLen rejects values longer than n characters.
func MaxLen(n int) Rule {
	return func(value string) string {
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("Enter at most %d characters", n)
		}
		return ""
	}
}

// Email rejects values that are not shaped like an email address.
func Email() Rule {
	return func(value string) string {
		if !emailPattern.MatchString(value) {
			return "Invalid email"
		}
		return ""
	}
}

// Expr compiles a CEL boolean expression over the string variable `value`.
// The rule rejects the value with message when the expression is false or
// fails to evaluate.
func Expr(expression, message string) (Rule, error) {
	env, err := cel.NewEnv(cel.Variable("value", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	ast, iss := env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("expression %q must evaluate to bool, got %s", expression, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expression, err)
	}
	return func(value string) string {
		out, _, err := prg.Eval(map[string]interface{}{"value": value})
		if err != nil {
			return message
		}
		if ok, isBool := out.Value().(bool); !isBool || !ok {
			return message
		}
		return ""
	}, nil
}

// MustExpr is Expr for expressions known at compile time.
func MustExpr(expression, message string) Rule {
	rule, err := Expr(expression, message)
	if err != nil {
		panic(err)
	}
	return rule
}

// FieldSpec declares one editable field of T: how to read it off a record and
// which rules a draft value must satisfy. Rules run in order; the first
// rejection is the field's error.
type FieldSpec[T Record] struct {
	Name  string
	Get   func(T) string
	Rules []Rule
}

// Schema describes an entity's editable fields and validation rules.
type Schema[T Record] struct {
	Resource string
	Entity   string
	Fields   []FieldSpec[T]
}

// Validate maps each failing field to its message. The result is empty iff
// the values are submittable. Missing keys are validated as "".
func (s Schema[T]) Validate(values map[string]string) map[string]string {
	errs := make(map[string]string)
	for _, f := range s.Fields {
		if msg := checkField(f.Rules, values[f.Name]); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}

// ValidateField runs the rules of a single field.
func (s Schema[T]) ValidateField(name, value string) (string, bool) {
	f, ok := s.field(name)
	if !ok {
		return "", false
	}
	return checkField(f.Rules, value), true
}

// HasField reports whether name is an editable field.
func (s Schema[T]) HasField(name string) bool {
	_, ok := s.field(name)
	return ok
}

// FieldNames lists the editable fields in declaration order.
func (s Schema[T]) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// EmptyDraft returns a value set with every field present and blank.
func (s Schema[T]) EmptyDraft() map[string]string {
	values := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		values[f.Name] = ""
	}
	return values
}

// DraftFrom copies the editable fields of record. The identifier is not part
// of the draft.
func (s Schema[T]) DraftFrom(record T) map[string]string {
	values := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		values[f.Name] = f.Get(record)
	}
	return values
}

func (s Schema[T]) field(name string) (FieldSpec[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec[T]{}, false
}

func checkField(rules []Rule, value string) string {
	for _, rule := range rules {
		if msg := rule(value); msg != "" {
			return msg
		}
	}
	return ""
}
