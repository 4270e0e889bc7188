package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKebab(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"limit", "limit"},
		{"createContact", "create-contact"},
		{"BankAccounts", "bank-accounts"},
		{"x_request_id", "x-request-id"},
		{"users.list", "users-list"},
		{"Bank Account", "bank-account"},
		{"__meta", "meta"},
		{"A--B", "a-b"},
		{"chat.postMessage", "chat-post-message"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Kebab(tc.in), "Kebab(%q)", tc.in)
	}
}

func TestCamel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"limit", "limit"},
		{"x-request-id", "xRequestId"},
		{"content-type", "contentType"},
		{"address.city", "address.city"}, // body-flag keys keep their dots
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Camel(tc.in), "Camel(%q)", tc.in)
	}
}

func TestPluralize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"contact", "contacts"},
		{"contacts", "contacts"},
		{"company", "companies"},
		{"box", "boxes"},
		{"batch", "batches"},
		{"bank-account", "bank-accounts"},
		{"day", "days"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Pluralize(tc.in), "Pluralize(%q)", tc.in)
	}
}

func TestSingularize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"contacts", "contact"},
		{"companies", "company"},
		{"boxes", "box"},
		{"batches", "batch"},
		{"address", "address"},
		{"bank-accounts", "bank-account"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Singularize(tc.in), "Singularize(%q)", tc.in)
	}
}
