package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestMaskPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"12345", "12345"},
		{"+1555", "+1555"},
		{"123456", "123...56"},
		{"+15550001", "+15...01"},
		{"+447700900123", "+44...23"},
		{"ééééé", "ééééé"},
		{"٠١٢٣٤٥٦", "٠١٢...٥٦"},
		{"+1 555 ☎ 0001", "+1 ...01"},
	}

	for _, tc := range cases {
		if got := MaskPhone(tc.in); got != tc.want {
			t.Fatalf("MaskPhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if got := MaskPhone(tc.in); !utf8.ValidString(got) {
			t.Fatalf("MaskPhone(%q) = %q is not valid UTF-8", tc.in, got)
		}
	}
}

func TestMaskPhone_Shape(t *testing.T) {
	for n := 6; n < 20; n++ {
		phone := strings.Repeat("9", n-2) + "12"
		got := MaskPhone(phone)
		if got != phone[:3]+"..."+"12" {
			t.Fatalf("MaskPhone(%q) = %q", phone, got)
		}
	}
}

func TestUserSummary(t *testing.T) {
	u := User{ID: 7, Phone: "+15550002", PasswordHash: "hash"}
	s := u.Summary()
	if s.ID != 7 || s.Phone != "+15550002" || s.Masked != "+15...02" {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestUserJSONHidesHash(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, Phone: "+15550001", PasswordHash: "$2a$10$secret"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(b); got != `{"id":1,"phone":"+15550001"}` {
		t.Fatalf("unexpected json %s", got)
	}
}

func TestMessageView(t *testing.T) {
	sender := int64(2)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("anonymous hides sender", func(t *testing.T) {
		m := Message{ID: 1, FromUser: &sender, ToUser: 1, Anonymous: true, Body: "hi", CreatedAt: created}
		v := m.View()
		if v.From != nil {
			t.Fatalf("expected nil From, got %d", *v.From)
		}
		if !v.Anonymous || v.Body != "hi" || v.ID != 1 || !v.CreatedAt.Equal(created) {
			t.Fatalf("unexpected view %+v", v)
		}
		if m.FromUser == nil || *m.FromUser != 2 {
			t.Fatalf("stored sender must be retained")
		}

		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !strings.Contains(string(b), `"from":null`) {
			t.Fatalf("expected explicit null from, got %s", b)
		}
	})

	t.Run("named shows sender", func(t *testing.T) {
		m := Message{ID: 2, FromUser: &sender, ToUser: 1, Body: "yo", CreatedAt: created}
		v := m.View()
		if v.From == nil || *v.From != 2 {
			t.Fatalf("expected From=2, got %v", v.From)
		}
		if v.From == m.FromUser {
			t.Fatalf("view must not alias the stored sender")
		}
	})
}
