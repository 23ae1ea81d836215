package usecase

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sokoide/shopfront/pkg/domain"
)

// Forms only check that required fields are filled in (plus numeric parsing
// where the API expects numbers). A failed check means "do not submit".

type LoginForm struct {
	Email    string
	Password string
}

func (f LoginForm) Valid() bool {
	return f.Email != "" && f.Password != ""
}

type RegisterForm struct {
	Name         string
	LastName     string
	Address      string
	DNI          string
	Email        string
	Password     string
	Role         string
	IVACondition domain.IVACondition
}

// NewRegisterForm returns the form with the defaults the sign-up screen starts from.
func NewRegisterForm() RegisterForm {
	return RegisterForm{
		Role:         strconv.Itoa(int(domain.RoleAdmin)),
		IVACondition: domain.IVARegistered,
	}
}

// Registration converts the form into a request body.
func (f RegisterForm) Registration() (domain.Registration, bool) {
	if f.Name == "" || f.LastName == "" || f.Address == "" || f.DNI == "" || f.Email == "" || f.Password == "" {
		return domain.Registration{}, false
	}
	dni, err := strconv.Atoi(strings.TrimSpace(f.DNI))
	if err != nil {
		return domain.Registration{}, false
	}
	role, err := strconv.Atoi(strings.TrimSpace(f.Role))
	if err != nil {
		return domain.Registration{}, false
	}
	iva := f.IVACondition
	if iva == "" {
		iva = domain.IVARegistered
	}
	return domain.Registration{
		Name:         f.Name,
		LastName:     f.LastName,
		Address:      f.Address,
		DNI:          dni,
		Email:        f.Email,
		Password:     f.Password,
		Role:         domain.Role(role),
		IVACondition: iva,
	}, true
}

type ProductForm struct {
	Name        string
	Description string
	ImageURL    string
	Price       string
}

func (f ProductForm) Product() (domain.NewProduct, bool) {
	if f.Name == "" || f.Description == "" || f.ImageURL == "" || f.Price == "" {
		return domain.NewProduct{}, false
	}
	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		return domain.NewProduct{}, false
	}
	return domain.NewProduct{
		Name:        f.Name,
		Description: f.Description,
		Media:       []string{f.ImageURL},
		Price:       price,
	}, true
}

type PaymentForm struct {
	Method string
}

func (f PaymentForm) PaymentMethod() (domain.PaymentMethod, bool) {
	m := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(f.Method)))
	return m, m.Valid()
}
