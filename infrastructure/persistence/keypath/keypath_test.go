package keypath

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdeaPaths(t *testing.T) {
	p, err := Ideas("u1")
	require.NoError(t, err)
	assert.Equal(t, "users/u1/ideas", p)

	p, err = Idea("u1", "1700000000000")
	require.NoError(t, err)
	assert.Equal(t, "users/u1/ideas/1700000000000", p)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"users/u1/ideas", false},
		{"accounts/abc", false},
		{"", true},
		{"users//ideas", true},
		{"users/u.1", true},
		{"users/u#1", true},
		{"users/$x", true},
		{"users/a[0]", true},
		{"/users", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := Validate(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := Idea("u1", "../x")
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	parent, key := Split("users/u1/ideas/7")
	assert.Equal(t, "users/u1/ideas", parent)
	assert.Equal(t, "7", key)

	parent, key = Split("root")
	assert.Equal(t, "", parent)
	assert.Equal(t, "root", key)
}

func TestLessKey(t *testing.T) {
	keys := []Child{{Key: "b"}, {Key: "10"}, {Key: "9"}, {Key: "a"}, {Key: "010"}}

	SortChildren(keys)

	got := make([]string, 0, len(keys))
	for _, k := range keys {
		got = append(got, k.Key)
	}
	assert.Equal(t, []string{"9", "10", "010", "a", "b"}, got)
}

func TestEncodeDecodeChildren_KeepsOrder(t *testing.T) {
	children := []Child{
		{Key: "20", Value: json.RawMessage(`{"title":"b"}`)},
		{Key: "3", Value: json.RawMessage(`{"title":"a"}`)},
	}

	data, err := EncodeChildren(children)
	require.NoError(t, err)
	assert.JSONEq(t, `{"3":{"title":"a"},"20":{"title":"b"}}`, string(data))
	assert.Equal(t, `{"3":{"title":"a"},"20":{"title":"b"}}`, string(data))

	back, err := DecodeChildren(data)
	require.NoError(t, err)
	want := []Child{
		{Key: "3", Value: json.RawMessage(`{"title":"a"}`)},
		{Key: "20", Value: json.RawMessage(`{"title":"b"}`)},
	}
	if diff := cmp.Diff(want, back); diff != "" {
		t.Errorf("DecodeChildren mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeChildren_RejectsNonObject(t *testing.T) {
	_, err := DecodeChildren([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestEncodeChildren_Empty(t *testing.T) {
	data, err := EncodeChildren(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
