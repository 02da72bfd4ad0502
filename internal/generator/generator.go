package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/domain"
	"github.com/avro07/spay/internal/service"
)

// Generator produces synthetic wallet seeds: accounts of every role, personal
// contacts and pre-existing history.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments nameFragments
	phones    map[string]struct{}
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.NumAgents < 0 {
		cfg.NumAgents = 0
	}
	if cfg.NumMerchants < 0 {
		cfg.NumMerchants = 0
	}
	if cfg.NumContacts < 0 {
		cfg.NumContacts = 0
	}
	if cfg.HistoryPerUser < 0 {
		cfg.HistoryPerUser = 0
	}
	if cfg.PIN == "" {
		cfg.PIN = def.PIN
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultNameFragments(),
		phones:    make(map[string]struct{}),
	}
}

// Generate synthesises a seed. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (service.Seed, error) {
	var seed service.Seed

	groups := []struct {
		role  domain.Role
		count int
		name  func() string
		funds func() decimal.Decimal
	}{
		{domain.RoleUser, g.cfg.NumUsers, g.randomFullName, func() decimal.Decimal { return g.randomAmount(500, 50000) }},
		{domain.RoleAgent, g.cfg.NumAgents, g.randomAgentName, func() decimal.Decimal { return g.randomAmount(50000, 500000) }},
		{domain.RoleMerchant, g.cfg.NumMerchants, g.randomMerchantName, func() decimal.Decimal { return g.randomAmount(10000, 200000) }},
	}
	for _, group := range groups {
		for i := 0; i < group.count; i++ {
			if err := ctx.Err(); err != nil {
				return service.Seed{}, err
			}
			seed.Accounts = append(seed.Accounts, service.RegisterInput{
				Name:           group.name(),
				Phone:          g.uniquePhone(),
				PIN:            g.cfg.PIN,
				Role:           string(group.role),
				OpeningBalance: group.funds(),
			})
		}
	}

	for i := 0; i < g.cfg.NumContacts; i++ {
		if err := ctx.Err(); err != nil {
			return service.Seed{}, err
		}
		seed.Contacts = append(seed.Contacts, service.ContactInput{
			Name:  g.randomFullName(),
			Phone: g.uniquePhone(),
		})
	}

	for _, account := range seed.Accounts[:g.cfg.NumUsers] {
		for i := 0; i < g.cfg.HistoryPerUser; i++ {
			if err := ctx.Err(); err != nil {
				return service.Seed{}, err
			}
			seed.History = append(seed.History, g.randomHistory(account.Phone, seed.Accounts))
		}
	}

	return seed, nil
}

func (g *Generator) randomHistory(owner string, accounts []service.RegisterInput) service.HistoryInput {
	peer := accounts[g.rand.Intn(len(accounts))]
	kinds := []struct {
		txType      domain.TransactionType
		description string
		min, max    int64
	}{
		{domain.TypeReceived, "Received Money", 50, 10000},
		{domain.TypeSend, "Send Money", 50, 5000},
		{domain.TypeRecharge, "Mobile Recharge", 20, 500},
		{domain.TypePayment, "Payment", 100, 3000},
		{domain.TypeCashOut, "Cash Out", 500, 10000},
	}
	kind := kinds[g.rand.Intn(len(kinds))]

	counterparty := peer.Name
	if kind.txType == domain.TypeRecharge {
		counterparty = owner
	}
	return service.HistoryInput{
		Phone:        owner,
		Type:         kind.txType,
		Amount:       g.randomAmount(kind.min, kind.max),
		Counterparty: counterparty,
		Description:  kind.description,
	}
}

// uniquePhone returns an 11-digit mobile number with a local operator prefix.
func (g *Generator) uniquePhone() string {
	for {
		prefix := g.fragments.operatorPrefixes[g.rand.Intn(len(g.fragments.operatorPrefixes))]
		phone := fmt.Sprintf("%s%08d", prefix, g.rand.Intn(100000000))
		if _, taken := g.phones[phone]; taken {
			continue
		}
		g.phones[phone] = struct{}{}
		return phone
	}
}

func (g *Generator) randomAmount(min, max int64) decimal.Decimal {
	whole := min + g.rand.Int63n(max-min+1)
	return decimal.NewFromInt(whole)
}

func (g *Generator) randomFullName() string {
	return fmt.Sprintf("%s %s", g.fragments.first[g.rand.Intn(len(g.fragments.first))],
		g.fragments.last[g.rand.Intn(len(g.fragments.last))])
}

func (g *Generator) randomAgentName() string {
	return fmt.Sprintf("%s %s", g.fragments.last[g.rand.Intn(len(g.fragments.last))],
		g.fragments.agentSuffix[g.rand.Intn(len(g.fragments.agentSuffix))])
}

func (g *Generator) randomMerchantName() string {
	return fmt.Sprintf("%s %s", g.fragments.shopPrefix[g.rand.Intn(len(g.fragments.shopPrefix))],
		g.fragments.shopKind[g.rand.Intn(len(g.fragments.shopKind))])
}

type nameFragments struct {
	first            []string
	last             []string
	agentSuffix      []string
	shopPrefix       []string
	shopKind         []string
	operatorPrefixes []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:            []string{"Rahim", "Karim", "Nadia", "Sadia", "Tanvir", "Farhana", "Imran", "Ayesha", "Rafiq", "Nusrat", "Sabbir", "Mitu", "Arif", "Jannat", "Hasan"},
		last:             []string{"Ahmed", "Islam", "Rahman", "Hossain", "Hasan", "Chowdhury", "Akter", "Khan", "Uddin", "Begum", "Sarker", "Mia"},
		agentSuffix:      []string{"Store", "Telecom", "Agent Point", "Enterprise", "Traders"},
		shopPrefix:       []string{"Daily", "City", "Green", "Royal", "New", "Star"},
		shopKind:         []string{"Bazar", "Pharmacy", "Electronics", "Fashion", "Super Shop", "Restaurant"},
		operatorPrefixes: []string{"013", "014", "015", "016", "017", "018", "019"},
	}
}
