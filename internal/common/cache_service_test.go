package common

import (
	"testing"
	"time"
)

func TestCacheService_SetNX(t *testing.T) {
	c := NewCacheService(60, 60)

	if !c.SetNX("TYPING_a", true, time.Minute) {
		t.Fatal("Expected first SetNX to store")
	}
	if c.SetNX("TYPING_a", true, time.Minute) {
		t.Error("Expected second SetNX to be rejected")
	}
}

func TestCacheService_DeletePrefix(t *testing.T) {
	c := NewCacheService(60, 60)
	c.Set("NEWS_LIST_1", 1, time.Minute)
	c.Set("NEWS_LIST_2", 2, time.Minute)
	c.Set("ROLE_x", "admin", time.Minute)

	c.DeletePrefix("NEWS_LIST_")

	if _, ok := c.Get("NEWS_LIST_1"); ok {
		t.Error("Expected NEWS_LIST_1 removed")
	}
	if _, ok := c.Get("ROLE_x"); !ok {
		t.Error("Expected ROLE_x kept")
	}
}

func TestCacheService_GetInto(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}
	c := NewCacheService(60, 60)
	c.Set("k", []item{{Name: "a"}}, time.Minute)

	var out []item
	if !c.GetInto("k", &out) {
		t.Fatal("Expected GetInto to find key")
	}
	if len(out) != 1 || out[0].Name != "a" {
		t.Errorf("Expected [{a}], got %v", out)
	}
}

func TestMaskCardNumber(t *testing.T) {
	cases := map[string]string{
		"4111 1111 1111 1234": "************1234",
		"1234":                "1234",
	}
	for in, want := range cases {
		if got := MaskCardNumber(in); got != want {
			t.Errorf("MaskCardNumber(%q): expected %q, got %q", in, want, got)
		}
	}
}
