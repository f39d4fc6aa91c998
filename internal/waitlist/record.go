package waitlist

import "time"

// Record é uma inscrição persistida. Email é único (normalizado) e o registro
// nunca é alterado depois de criado.
type Record struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Name      string    `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Company   string    `json:"company,omitempty" dynamodbav:"company,omitempty"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
	IPAddress string    `json:"ipAddress,omitempty" dynamodbav:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty" dynamodbav:"userAgent,omitempty"`
}

// PublicRecord é a visão do admin: sem dados de proveniência.
type PublicRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r Record) Public() PublicRecord {
	return PublicRecord{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Company:   r.Company,
		CreatedAt: r.CreatedAt,
	}
}

// Submission é a entrada bruta do formulário mais a proveniência da requisição.
type Submission struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}
