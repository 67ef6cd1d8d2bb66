package store

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// SeedFile is a YAML fixture describing initial backend state.
type SeedFile struct {
	Accounts     []SeedAccount     `yaml:"accounts"`
	QRCodes      []SeedQRCode      `yaml:"qr_codes"`
	Transactions []SeedTransaction `yaml:"transactions"`
}

// SeedAccount is one account in a fixture. Passwords are plaintext in the
// fixture and hashed at load; never use fixture files outside development.
type SeedAccount struct {
	UID          string   `yaml:"uid"`
	Email        string   `yaml:"email"`
	Password     string   `yaml:"password"`
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	BusinessName string   `yaml:"business_name"`
	Tier         string   `yaml:"tier"`
	QRCodeType   string   `yaml:"qr_code_type"`
	Phone        string   `yaml:"phone"`
	City         string   `yaml:"city"`
	Lat          *float64 `yaml:"lat"`
	Lng          *float64 `yaml:"lng"`
}

// SeedQRCode is one active code in a fixture, keyed to its seller by email.
type SeedQRCode struct {
	SellerEmail     string `yaml:"seller_email"`
	Type            string `yaml:"qr_type"`
	PointsValue     int    `yaml:"points_value"`
	Data            string `yaml:"qr_code_data"`
	HiddenCode      string `yaml:"hidden_code"`
	ExpiresInMinute int    `yaml:"expires_in_minutes"`
}

// SeedTransaction is one history entry in a fixture.
type SeedTransaction struct {
	CustomerEmail string `yaml:"customer_email"`
	SellerEmail   string `yaml:"seller_email"`
	Type          string `yaml:"type"`
	Amount        int    `yaml:"amount"`
}

// LoadSeedFile reads a YAML fixture and populates the store.
func (s *MemoryStore) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file %s: %w", path, err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}
	return s.Seed(&seed)
}

// Seed populates the store from a fixture.
func (s *MemoryStore) Seed(seed *SeedFile) error {
	now := s.Clock.Now()
	byEmail := make(map[string]Account)

	for _, sa := range seed.Accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(sa.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing seed password for %s: %w", sa.Email, err)
		}
		uid := sa.UID
		if uid == "" {
			uid = s.Accounts.NextID()
		}
		tier := sa.Tier
		if sa.Role == "seller" && tier == "" {
			tier = "free"
		}
		acct := Account{
			UID:          uid,
			Email:        sa.Email,
			Name:         sa.Name,
			PasswordHash: string(hash),
			Role:         sa.Role,
			BusinessName: sa.BusinessName,
			Tier:         tier,
			QRCodeType:   sa.QRCodeType,
			Phone:        sa.Phone,
			City:         sa.City,
			Lat:          sa.Lat,
			Lng:          sa.Lng,
			CreatedAt:    now,
		}
		s.Accounts.Set(uid, acct)
		byEmail[sa.Email] = acct
	}

	for _, sq := range seed.QRCodes {
		seller, ok := byEmail[sq.SellerEmail]
		if !ok || seller.Role != "seller" {
			return fmt.Errorf("seed QR references unknown seller %s", sq.SellerEmail)
		}
		id := s.QRCodes.NextID()
		qr := QRCode{
			ID:          id,
			SellerUID:   seller.UID,
			Type:        sq.Type,
			PointsValue: sq.PointsValue,
			Data:        sq.Data,
			HiddenCode:  sq.HiddenCode,
			Active:      true,
			CreatedAt:   now,
		}
		if sq.ExpiresInMinute > 0 {
			exp := now.Add(time.Duration(sq.ExpiresInMinute) * time.Minute)
			qr.ExpiresAt = &exp
		}
		s.QRCodes.Set(id, qr)
	}

	for _, st := range seed.Transactions {
		customer, ok := byEmail[st.CustomerEmail]
		if !ok {
			return fmt.Errorf("seed transaction references unknown customer %s", st.CustomerEmail)
		}
		seller, ok := byEmail[st.SellerEmail]
		if !ok {
			return fmt.Errorf("seed transaction references unknown seller %s", st.SellerEmail)
		}
		id := s.Transactions.NextID()
		s.Transactions.Set(id, Transaction{
			ID:          id,
			CustomerUID: customer.UID,
			Type:        st.Type,
			Amount:      st.Amount,
			SellerUID:   seller.UID,
			SellerName:  seller.BusinessName,
			Timestamp:   now,
		})
	}
	return nil
}
