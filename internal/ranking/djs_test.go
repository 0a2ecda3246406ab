package ranking

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAndUpdateDJ(t *testing.T) {
	f := newFixture(t)

	dj, err := f.service.CreateDJ(context.Background(), DJInput{
		Name:        stringPointer("  Anna   Tur "),
		Country:     stringPointer("ar"),
		Instagram:   stringPointer("https://instagram.com/annatur"),
		SocialLinks: map[string]string{"SoundCloud": " https://soundcloud.com/annatur ", "": "skip"},
	}, testAdminID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if dj.Name != "Anna Tur" || dj.Country != "AR" || dj.Instagram != "annatur" || dj.Approved {
		t.Fatalf("unexpected dj: %+v", dj)
	}
	if dj.SocialLinks["soundcloud"] != "https://soundcloud.com/annatur" || len(dj.SocialLinks) != 1 {
		t.Fatalf("unexpected social links: %+v", dj.SocialLinks)
	}

	updated, err := f.service.UpdateDJ(context.Background(), dj.ID, DJInput{Bio: stringPointer("Ibiza resident")}, "admin-2")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Anna Tur" || updated.Bio != "Ibiza resident" || updated.UpdatedBy != "admin-2" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	approved, err := f.service.SetDJApproval(context.Background(), dj.ID, true, testAdminID)
	if err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if !approved.Approved {
		t.Fatalf("expected approved dj")
	}

	listed, err := f.service.ListDJs(context.Background(), DJFilter{Country: "ar", ApprovedOnly: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != dj.ID {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func TestCreateDJRequiresNameAndCountry(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CreateDJ(context.Background(), DJInput{Name: stringPointer("Solo")}, testAdminID)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = f.service.CreateDJ(context.Background(), DJInput{Name: stringPointer(" "), Country: stringPointer("AR")}, testAdminID)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
}

func TestGetDJNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.GetDJ(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceWithoutRepositoryFails(t *testing.T) {
	var service Service
	if _, err := service.ListDJs(context.Background(), DJFilter{}); !errors.Is(err, ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}
