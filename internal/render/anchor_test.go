package render

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mark3labs/vimanam/internal/spec"
)

func TestAnchor(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Users":              "users",
		"HTTP Methods":       "http-methods",
		"List all-the Pets2": "list-all-the-pets2",
		"GET /users/{id}":    "get-usersid",
		"Crème Brûlée":       "creme-brulee",
		"Users_list":         "userslist",
		"日本":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Anchor(in), in)
	}
}

func TestAnchor_SimpleTitlesLowercaseAndHyphenate(t *testing.T) {
	t.Parallel()
	for _, title := range []string{"Pets", "Order Items", "v2 Admin-Tools", "a  b"} {
		want := strings.ReplaceAll(strings.ToLower(title), " ", "-")
		assert.Equal(t, want, Anchor(title))
	}
}

func TestAnchor_OnlySafeCharacters(t *testing.T) {
	t.Parallel()
	safe := regexp.MustCompile(`^[a-z0-9-]*$`)
	for _, title := range []string{"Ünïcödé Tïtle!", "a|b`c", "tab\there", "ÅNGSTRÖM & co.", "emoji 🚀 launch", "İstanbul"} {
		assert.Regexp(t, safe, Anchor(title), title)
	}
}

func TestAnchorSet_Suffixes(t *testing.T) {
	t.Parallel()
	s := newAnchorSet()
	assert.Equal(t, "pets", s.claim("Pets"))
	assert.Equal(t, "pets-1", s.claim("pets"))
	assert.Equal(t, "pets-2", s.claim("PETS"))
	assert.Equal(t, "section", s.claim("!!"))
	assert.Equal(t, "section-1", s.claim("??"))
}

func TestShortTitle(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		ep      spec.Endpoint
		service string
		want    string
	}{
		{"operation id", spec.Endpoint{OperationID: "listPets", Summary: "List pets"}, "", "listPets"},
		{"service prefix stripped", spec.Endpoint{OperationID: "Users_list"}, "Users", "list"},
		{"other service prefix kept", spec.Endpoint{OperationID: "Users_list"}, "Orders", "Users_list"},
		{"bare prefix kept", spec.Endpoint{OperationID: "Users_"}, "Users", "Users_"},
		{"identifier-like summary", spec.Endpoint{Summary: "GetUser returns one user"}, "", "GetUser"},
		{"plain summary", spec.Endpoint{Summary: "returns one user"}, "", "returns one user"},
		{"fallback", spec.Endpoint{Method: spec.PATCH, Path: "/a/{b}"}, "", "PATCH /a/{b}"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ShortTitle(&tc.ep, tc.service))
		})
	}
}

func TestParseConfigValues(t *testing.T) {
	t.Parallel()
	g, err := ResolveGroupBy(true, true, "tag")
	assert.NoError(t, err)
	assert.Equal(t, GroupByFlat, g)
	g, err = ResolveGroupBy(false, true, "tag")
	assert.NoError(t, err)
	assert.Equal(t, GroupByMethod, g)
	g, err = ResolveGroupBy(false, false, "Tag")
	assert.NoError(t, err)
	assert.Equal(t, GroupByTag, g)
	g, err = ResolveGroupBy(false, false, "")
	assert.NoError(t, err)
	assert.Equal(t, GroupByService, g)
	_, err = ResolveGroupBy(false, false, "color")
	assert.Error(t, err)

	s, err := ParseSort("path_length")
	assert.NoError(t, err)
	assert.Equal(t, SortPathLength, s)
	f, err := ParseFormat("HTML")
	assert.NoError(t, err)
	assert.Equal(t, FormatHTML, f)
	d, err := ParseDetail("full")
	assert.NoError(t, err)
	assert.Equal(t, DetailFull, d)

	methods, err := ParseMethodFilter([]string{"get", " Post", ""})
	assert.NoError(t, err)
	assert.Equal(t, []spec.HttpMethod{spec.GET, spec.POST}, methods)
	_, err = ParseMethodFilter([]string{"fetch"})
	assert.Error(t, err)
}
