package store

import (
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestLoadSeedFile(t *testing.T) {
	s := New()
	if err := s.LoadSeedFile(filepath.Join("testdata", "seed.yaml")); err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}

	seller := s.GetAccountByEmail("chai@example.com", "seller")
	if seller == nil {
		t.Fatal("seed seller missing")
	}
	if seller.Tier != "pro" || seller.QRCodeType != "static" {
		t.Errorf("unexpected seller fields: %+v", seller)
	}
	if bcrypt.CompareHashAndPassword([]byte(seller.PasswordHash), []byte("correct-horse")) != nil {
		t.Error("seed password was not hashed from the plaintext")
	}

	customer := s.GetAccountByEmail("amira@example.com", "customer")
	if customer == nil {
		t.Fatal("seed customer missing")
	}
	if customer.Lat == nil || *customer.Lat != 12.9716 {
		t.Errorf("expected seeded latitude, got %v", customer.Lat)
	}

	qr := s.ActiveQRForSeller(seller.UID)
	if qr == nil || qr.Data != "pl:seed:chai-static" {
		t.Errorf("expected seeded active code, got %+v", qr)
	}

	if got := s.Balance(customer.UID, seller.UID); got != 30 {
		t.Errorf("expected seeded balance 30, got %d", got)
	}
}

func TestSeedRejectsUnknownReferences(t *testing.T) {
	s := New()
	err := s.Seed(&SeedFile{
		QRCodes: []SeedQRCode{{SellerEmail: "ghost@example.com", Type: "static", PointsValue: 1}},
	})
	if err == nil {
		t.Error("expected an error for a QR code with no seller")
	}

	s = New()
	err = s.Seed(&SeedFile{
		Transactions: []SeedTransaction{{CustomerEmail: "ghost@example.com", SellerEmail: "x", Type: "earned", Amount: 1}},
	})
	if err == nil {
		t.Error("expected an error for a transaction with no customer")
	}
}
