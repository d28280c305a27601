package finch

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Product is a Finch data scope requested through Connect
type Product string

const (
	ProductCompany      Product = "company"
	ProductDirectory    Product = "directory"
	ProductIndividual   Product = "individual"
	ProductEmployment   Product = "employment"
	ProductPayment      Product = "payment"
	ProductPayStatement Product = "pay_statement"
)

var AllProducts = []Product{
	ProductCompany,
	ProductDirectory,
	ProductIndividual,
	ProductEmployment,
	ProductPayment,
	ProductPayStatement,
}

var DefaultProducts = []Product{ProductCompany, ProductDirectory}

// ParseProduct returns the Product named by s
func ParseProduct(s string) (Product, error) {
	for _, p := range AllProducts {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown product %q", s)
}

// ConnectOptions describes how the Connect widget should be launched
type ConnectOptions struct {
	Products        []Product `yaml:"products" json:"products"`
	Embedded        bool      `yaml:"embedded" json:"embedded"`
	Sandbox         bool      `yaml:"sandbox" json:"sandbox"`
	PayrollProvider string    `yaml:"payroll_provider" json:"payroll_provider,omitempty"`
}

// DefaultConnectOptions is used when no connect config file is given
func DefaultConnectOptions() ConnectOptions {
	products := make([]Product, len(DefaultProducts))
	copy(products, DefaultProducts)
	return ConnectOptions{Products: products}
}

// LoadConnectOptions reads options from a YAML file
func LoadConnectOptions(path string) (ConnectOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConnectOptions{}, fmt.Errorf("failed to read connect config: %w", err)
	}

	var opts ConnectOptions
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return ConnectOptions{}, fmt.Errorf("failed to parse connect config: %w", err)
	}
	if len(opts.Products) == 0 {
		opts.Products = DefaultConnectOptions().Products
	}

	if err := opts.Validate(); err != nil {
		return ConnectOptions{}, err
	}
	return opts, nil
}

// Validate checks every requested product against the known vocabulary
func (o ConnectOptions) Validate() error {
	for _, p := range o.Products {
		if _, err := ParseProduct(string(p)); err != nil {
			return err
		}
	}
	return nil
}

// ProductScope joins the products the way the authorize endpoint expects them
func (o ConnectOptions) ProductScope() string {
	names := make([]string, len(o.Products))
	for i, p := range o.Products {
		names[i] = string(p)
	}
	return strings.Join(names, " ")
}

// AuthorizeURL builds the Connect authorize URL for the redirect flow
func (o ConnectOptions) AuthorizeURL(connectURL, clientID, redirectURI, state string) string {
	u, err := url.Parse(strings.TrimSuffix(connectURL, "/") + "/authorize")
	if err != nil {
		return connectURL
	}

	q := u.Query()
	q.Set("client_id", clientID)
	q.Set("products", o.ProductScope())
	q.Set("redirect_uri", redirectURI)
	if state != "" {
		q.Set("state", state)
	}
	if o.Sandbox {
		q.Set("sandbox", "true")
	}
	if o.PayrollProvider != "" {
		q.Set("payroll_provider", o.PayrollProvider)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
