package citizen

import "time"

// Citizen é o registro durável que vincula o usuário do app ao cidadão.
// user_id é a chave primária; citizen_id carrega a constraint de unicidade
// usada na reconciliação.
type Citizen struct {
	UserID       string `json:"userId"`
	CitizenID    string `json:"citizenId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirth"`
	Mobile       string `json:"mobile"`
	Email        string `json:"email"`
	Notification string `json:"notification"`

	// Endereço só é preenchido no registro; até lá as colunas ficam nulas.
	AddressLine1 *string `json:"addressLine1,omitempty"`
	AddressLine2 *string `json:"addressLine2,omitempty"`
	Subdistrict  *string `json:"subdistrict,omitempty"`
	District     *string `json:"district,omitempty"`
	Province     *string `json:"province,omitempty"`
	Postcode     *string `json:"postcode,omitempty"`

	IsRegistered bool       `json:"isRegistered"`
	RegisteredAt *time.Time `json:"registeredAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Ref é a projeção mínima usada na decisão de branch do login.
type Ref struct {
	UserID       string
	CitizenID    string
	IsRegistered bool
}
