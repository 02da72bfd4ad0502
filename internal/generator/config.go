package generator

// Config drives the synthetic seed generator.
type Config struct {
	NumUsers       int
	NumAgents      int
	NumMerchants   int
	NumContacts    int
	HistoryPerUser int
	PIN            string
	Seed           int64
}

// DefaultConfig returns a small dataset suitable for local development.
func DefaultConfig() Config {
	return Config{
		NumUsers:       200,
		NumAgents:      20,
		NumMerchants:   30,
		NumContacts:    50,
		HistoryPerUser: 5,
		PIN:            "1234",
		Seed:           42,
	}
}
