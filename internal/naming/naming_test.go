package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		in     string
		policy Policy
		want   string
	}{
		{"createdAt", SnakeCase, "created_at"},
		{"created_at", SnakeCase, "created_at"},
		{"userID", SnakeCase, "user_id"},
		{"HTTPServer", SnakeCase, "http_server"},
		{"address2Line", SnakeCase, "address2_line"},
		{"user-name", LowerSnakeCase, "user_name"},
		{"createdAt", UpperSnakeCase, "CREATED_AT"},
		{"createdAt", KebabCase, "created-at"},
		{"createdAt", LowerKebabCase, "created-at"},
		{"createdAt", UpperKebabCase, "CREATED-AT"},
		{"created_at", CamelCase, "createdAt"},
		{"created-at", CamelCase, "createdAt"},
		{"CreatedAt", CamelCase, "createdAt"},
		{"_id", CamelCase, "id"},
		{"createdAt", None, "createdAt"},
		{"Created_AT", None, "Created_AT"},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String()+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Convert(tt.in, tt.policy))
		})
	}
}

func TestConvertIdempotent(t *testing.T) {
	inputs := []string{
		"createdAt", "created_at", "userID", "userId", "HTTPServer", "id", "ID",
		"address2Line", "a", "", "_id", "id_", "user-name", "CREATED_AT", "XMLHttpRequest",
	}
	for p := range policyNames {
		for _, in := range inputs {
			once := Convert(in, p)
			assert.Equal(t, once, Convert(once, p), "policy %s input %q", p, in)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{
		"":                 SnakeCase,
		"snake":            SnakeCase,
		"CamelCase":        CamelCase,
		"camel":            CamelCase,
		"UPPER_SNAKE_CASE": UpperSnakeCase,
		"lower_snake":      LowerSnakeCase,
		"kebab-case":       KebabCase,
		"upper_kebab":      UpperKebabCase,
		"LowerKebab":       LowerKebabCase,
		"none":             None,
	} {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePolicy("pascal")
	require.Error(t, err)
}

func TestGoIdentifiers(t *testing.T) {
	assert.Equal(t, "Email", Exported("email"))
	assert.Equal(t, "UserID", Exported("userID"))
	assert.Equal(t, "ID", Exported("id"))
	assert.Equal(t, "Identity", Exported("identity"))
	assert.Equal(t, "", Exported(""))

	assert.Equal(t, "email", Unexported("Email"))
	assert.Equal(t, "id", Unexported("ID"))
	assert.Equal(t, "urlPath", Unexported("URLPath"))
	assert.Equal(t, "userID", Unexported("userID"))
	assert.Equal(t, "type_", Unexported("Type"))

	assert.Equal(t, "GetEmail", Getter("Email"))
	assert.Equal(t, "GetEmailOr", GetterOr("Email"))
	assert.Equal(t, "SetEmail", Setter("Email"))
	assert.Equal(t, "HasEmail", Has("Email"))
	assert.Equal(t, "ClearEmail", Clear("Email"))

	assert.Equal(t, "group", Singular("Groups"))
	assert.Equal(t, "category", Singular("Categories"))
	assert.Equal(t, "account_response_projgen.go", FileName("AccountResponse", "_projgen.go"))
}
