package services

import (
	"context"

	"github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
)

// SeedRepository defines the repository methods needed by SeedService
type SeedRepository interface {
	repository.CandidateRepository
	repository.OfficerRepository
}

// SecretHasher turns a plaintext officer secret into its stored form
type SecretHasher func(secret string) (string, error)

// DemoOfficerSecret is the password of every seeded officer
const DemoOfficerSecret = "admin123"

// DemoConstituencies are the constituencies known to the demo
var DemoConstituencies = []string{
	"Mumbai North",
	"Mumbai South",
	"Delhi Central",
	"Delhi East",
	"Bangalore North",
	"Bangalore South",
}

// DemoCandidates are the candidates standing in the demo election
var DemoCandidates = []models.Candidate{
	{ID: "1", Name: "Rajesh Kumar", Party: "Indian National Congress", Constituency: "Mumbai North", Symbol: "https://via.placeholder.com/150x150/4F46E5/FFFFFF?text=RK", Description: "Experienced leader focused on urban development and infrastructure."},
	{ID: "2", Name: "Priya Sharma", Party: "Bharatiya Janata Party", Constituency: "Mumbai North", Symbol: "https://via.placeholder.com/150x150/DC2626/FFFFFF?text=PS", Description: "Young politician advocating for digital India and entrepreneurship."},
	{ID: "3", Name: "Mohammed Ali", Party: "Aam Aadmi Party", Constituency: "Mumbai North", Symbol: "https://via.placeholder.com/150x150/059669/FFFFFF?text=MA", Description: "Community leader working for transparent governance."},
	{ID: "4", Name: "Sunita Patel", Party: "Indian National Congress", Constituency: "Mumbai South", Symbol: "https://via.placeholder.com/150x150/4F46E5/FFFFFF?text=SP", Description: "Social worker dedicated to women empowerment and education."},
	{ID: "5", Name: "Vikram Singh", Party: "Bharatiya Janata Party", Constituency: "Mumbai South", Symbol: "https://via.placeholder.com/150x150/DC2626/FFFFFF?text=VS", Description: "Former businessman focusing on economic development."},
	{ID: "6", Name: "Anita Roy", Party: "Trinamool Congress", Constituency: "Delhi Central", Symbol: "https://via.placeholder.com/150x150/7C3AED/FFFFFF?text=AR", Description: "Advocate for environmental protection and sustainable development."},
	{ID: "7", Name: "Ravi Gupta", Party: "Bharatiya Janata Party", Constituency: "Delhi Central", Symbol: "https://via.placeholder.com/150x150/DC2626/FFFFFF?text=RG", Description: "Technology enthusiast promoting smart city initiatives."},
	{ID: "8", Name: "Meera Joshi", Party: "Indian National Congress", Constituency: "Delhi East", Symbol: "https://via.placeholder.com/150x150/4F46E5/FFFFFF?text=MJ", Description: "Healthcare professional working for better medical facilities."},
	{ID: "9", Name: "Arun Kumar", Party: "Aam Aadmi Party", Constituency: "Delhi East", Symbol: "https://via.placeholder.com/150x150/059669/FFFFFF?text=AK", Description: "Education reformist focusing on quality schooling for all."},
	{ID: "10", Name: "Kavya Reddy", Party: "Indian National Congress", Constituency: "Bangalore North", Symbol: "https://via.placeholder.com/150x150/4F46E5/FFFFFF?text=KR", Description: "IT professional advocating for tech innovation and job creation."},
	{ID: "11", Name: "Suresh Babu", Party: "Bharatiya Janata Party", Constituency: "Bangalore North", Symbol: "https://via.placeholder.com/150x150/DC2626/FFFFFF?text=SB", Description: "Agricultural expert promoting farmer welfare schemes."},
	{ID: "12", Name: "Lakshmi Devi", Party: "Janata Dal", Constituency: "Bangalore South", Symbol: "https://via.placeholder.com/150x150/F59E0B/FFFFFF?text=LD", Description: "Women rights activist and social entrepreneur."},
}

// DemoOfficers are the seeded voting officers; Secret holds the plaintext
var DemoOfficers = []models.Officer{
	{ID: "1", EmployeeID: "VO001", Name: "Admin Officer", Secret: DemoOfficerSecret, Constituency: models.AllConstituencies, Role: "admin"},
	{ID: "2", EmployeeID: "VO002", Name: "Mumbai North Officer", Secret: DemoOfficerSecret, Constituency: "Mumbai North", Role: "officer"},
	{ID: "3", EmployeeID: "VO003", Name: "Mumbai South Officer", Secret: DemoOfficerSecret, Constituency: "Mumbai South", Role: "officer"},
	{ID: "4", EmployeeID: "VO004", Name: "Delhi Central Officer", Secret: DemoOfficerSecret, Constituency: "Delhi Central", Role: "officer"},
	{ID: "5", EmployeeID: "VO005", Name: "Delhi East Officer", Secret: DemoOfficerSecret, Constituency: "Delhi East", Role: "officer"},
}

// SeedResult counts what a seed run wrote
type SeedResult struct {
	Constituencies int `json:"constituencies"`
	Candidates     int `json:"candidates"`
	Officers       int `json:"officers"`
}

// SeedService loads the demo election
type SeedService struct {
	log  logger.Logger
	repo SeedRepository
	hash SecretHasher
}

// NewSeedService creates a new SeedService. A nil hash stores officer
// secrets as given.
func NewSeedService(log logger.Logger, repo SeedRepository, hash SecretHasher) *SeedService {
	return &SeedService{log: log, repo: repo, hash: hash}
}

// SeedDemoData writes the demo constituencies and candidates, and adds any
// demo officer that does not exist yet. Existing officers keep their secret.
func (s *SeedService) SeedDemoData(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}

	for i, name := range DemoConstituencies {
		if err := s.repo.UpsertConstituency(ctx, name, i+1); err != nil {
			return nil, errors.Internal(err)
		}
		result.Constituencies++
	}

	for i, c := range DemoCandidates {
		if err := s.repo.UpsertCandidate(ctx, c, i+1); err != nil {
			return nil, errors.Internal(err)
		}
		result.Candidates++
	}

	for _, o := range DemoOfficers {
		_, err := s.repo.GetOfficerByEmployeeID(ctx, o.EmployeeID)
		if err == nil {
			continue
		}
		if err != repository.ErrNotFound {
			return nil, errors.Internal(err)
		}
		if s.hash != nil {
			hashed, err := s.hash(o.Secret)
			if err != nil {
				return nil, errors.Internal(err)
			}
			o.Secret = hashed
		}
		if err := s.repo.UpsertOfficer(ctx, o); err != nil {
			return nil, errors.Internal(err)
		}
		result.Officers++
	}

	s.log.Info("Seeded demo data",
		"constituencies", result.Constituencies,
		"candidates", result.Candidates,
		"officers", result.Officers)
	return result, nil
}
