package models

import (
	"fmt"
	"strings"
)

// QuizDomain names the resource category a quiz routes to.
type QuizDomain string

const (
	DomainConsultant      QuizDomain = "consultant"
	DomainSales           QuizDomain = "sales"
	DomainRealEstate      QuizDomain = "real-estate"
	DomainInvestor        QuizDomain = "investor"
	DomainLegal           QuizDomain = "legal"
	DomainAccountants     QuizDomain = "accountants"
	DomainHR              QuizDomain = "hr"
	DomainManufacturing   QuizDomain = "manufacturing"
	DomainMarketing       QuizDomain = "marketing"
	DomainMentalHealth    QuizDomain = "mental-health"
	DomainInsurance       QuizDomain = "insurance"
	DomainBankLoan        QuizDomain = "bank-loan"
	DomainCustomerService QuizDomain = "customer-service"
	DomainCSR             QuizDomain = "csr"
)

// QuizAnswers is the filter criteria a user submitted for one discovery query.
// Implementations are plain values; nothing mutates them after construction.
type QuizAnswers interface {
	Domain() QuizDomain
	// Keyword is the free-text search phrase sent upstream.
	Keyword() string
	// Location is the raw location preference sent alongside the keyword.
	Location() string
}

func withLocation(keyword, loc string) string {
	return fmt.Sprintf("%s in %s", keyword, loc)
}

type ConsultantQuizAnswers struct {
	LocationPref      string `json:"locationPref" yaml:"locationPref"`
	AreaOfFocus       string `json:"areaOfFocus" yaml:"areaOfFocus"`
	Industry          string `json:"industry" yaml:"industry"`
	StartupExperience bool   `json:"startupExperience" yaml:"startupExperience"`
	EngagementLength  string `json:"engagementLength" yaml:"engagementLength"`
}

func (a ConsultantQuizAnswers) Domain() QuizDomain { return DomainConsultant }
func (a ConsultantQuizAnswers) Location() string   { return a.LocationPref }

func (a ConsultantQuizAnswers) Keyword() string {
	keyword := a.AreaOfFocus + " business consultant"
	if a.Industry != "" {
		keyword += " for " + a.Industry
	}
	if a.EngagementLength != "" {
		keyword += " " + strings.ToLower(a.EngagementLength)
	}
	if a.StartupExperience {
		keyword += " with startup experience"
	}
	return withLocation(keyword, a.LocationPref)
}

type SalesQuizAnswers struct {
	LocationPref     string `json:"locationPref" yaml:"locationPref"`
	SalesModel       string `json:"salesModel" yaml:"salesModel"`
	SalesApproach    string `json:"salesApproach" yaml:"salesApproach"`
	CRMExperience    string `json:"crmExperience" yaml:"crmExperience"`
	CompensationType string `json:"compensationType" yaml:"compensationType"`
}

func (a SalesQuizAnswers) Domain() QuizDomain { return DomainSales }
func (a SalesQuizAnswers) Location() string   { return a.LocationPref }

func (a SalesQuizAnswers) Keyword() string {
	keyword := fmt.Sprintf("%s sales team %s", a.SalesModel, a.SalesApproach)
	if a.CRMExperience != "" {
		keyword += fmt.Sprintf(" with %s experience", a.CRMExperience)
	}
	if a.CompensationType != "" {
		keyword += " " + strings.ToLower(a.CompensationType)
	}
	return withLocation(keyword, a.LocationPref)
}

type RealEstateQuizAnswers struct {
	LocationPref     string `json:"locationPref" yaml:"locationPref"`
	SpaceType        string `json:"spaceType" yaml:"spaceType"`
	LeaseOrBuy       string `json:"leaseOrBuy" yaml:"leaseOrBuy"`
	RegionPreference string `json:"regionPreference" yaml:"regionPreference"`
	SquareFootage    string `json:"squareFootage" yaml:"squareFootage"`
}

func (a RealEstateQuizAnswers) Domain() QuizDomain { return DomainRealEstate }
func (a RealEstateQuizAnswers) Location() string   { return a.LocationPref }

func (a RealEstateQuizAnswers) Keyword() string {
	return withLocation(fmt.Sprintf("%s space real estate %s", a.SpaceType, a.LeaseOrBuy), a.LocationPref)
}

type InvestorQuizAnswers struct {
	LocationPref string `json:"locationPref" yaml:"locationPref"`
	InvestorType string `json:"investorType" yaml:"investorType"`
	FundingStage string `json:"fundingStage" yaml:"fundingStage"`
	CheckSize    string `json:"checkSize" yaml:"checkSize"`
	Industry     string `json:"industry" yaml:"industry"`
}

func (a InvestorQuizAnswers) Domain() QuizDomain { return DomainInvestor }
func (a InvestorQuizAnswers) Location() string   { return a.LocationPref }

func (a InvestorQuizAnswers) Keyword() string {
	keyword := fmt.Sprintf("%s %s investor", a.FundingStage, a.InvestorType)
	if a.Industry != "" {
		keyword += fmt.Sprintf(" for %s startups", a.Industry)
	}
	return withLocation(keyword, a.LocationPref)
}

type LegalQuizAnswers struct {
	LocationPref      string `json:"locationPref" yaml:"locationPref"`
	LegalNeeds        string `json:"legalNeeds" yaml:"legalNeeds"`
	Specialization    string `json:"specialization" yaml:"specialization"`
	StartupExperience bool   `json:"startupExperience" yaml:"startupExperience"`
	PricingModel      string `json:"pricingModel" yaml:"pricingModel"`
}

func (a LegalQuizAnswers) Domain() QuizDomain { return DomainLegal }
func (a LegalQuizAnswers) Location() string   { return a.LocationPref }

// Keyword picks a firm type from the stated needs. The location is appended
// without "in" for this domain.
func (a LegalQuizAnswers) Keyword() string {
	needs := strings.ToLower(a.LegalNeeds)
	spec := strings.ToLower(a.Specialization)

	var base string
	switch {
	case strings.Contains(needs, "ip") || strings.Contains(spec, "trademark") || strings.Contains(spec, "patent"):
		base = "IP law firm"
	case strings.Contains(needs, "compliance"):
		base = "business compliance attorney"
	case strings.Contains(needs, "contracts"):
		base = "business contract lawyer"
	case strings.Contains(needs, "formation"):
		base = "startup formation lawyer"
	default:
		base = "business lawyer"
	}
	return base + " " + a.LocationPref
}

type AccountantsQuizAnswers struct {
	LocationPref       string `json:"locationPref" yaml:"locationPref"`
	BusinessStructure  string `json:"businessStructure" yaml:"businessStructure"`
	ServiceNeed        string `json:"serviceNeed" yaml:"serviceNeed"`
	IndustryExperience bool   `json:"industryExperience" yaml:"industryExperience"`
	ServiceFrequency   string `json:"serviceFrequency" yaml:"serviceFrequency"`
}

func (a AccountantsQuizAnswers) Domain() QuizDomain { return DomainAccountants }
func (a AccountantsQuizAnswers) Location() string   { return a.LocationPref }

func (a AccountantsQuizAnswers) Keyword() string {
	base := withLocation(fmt.Sprintf("%s accountant for %s", a.ServiceNeed, a.BusinessStructure), a.LocationPref)
	if a.IndustryExperience {
		base += " with industry tax experience"
	}
	return base
}

type HRQuizAnswers struct {
	LocationPref   string `json:"locationPref" yaml:"locationPref"`
	HRNeed         string `json:"hrNeed" yaml:"hrNeed"`
	EmployeeCount  string `json:"employeeCount" yaml:"employeeCount"`
	DeliveryType   string `json:"deliveryType" yaml:"deliveryType"`
	ComplianceNeed string `json:"complianceNeed" yaml:"complianceNeed"`
}

func (a HRQuizAnswers) Domain() QuizDomain { return DomainHR }
func (a HRQuizAnswers) Location() string   { return a.LocationPref }

func (a HRQuizAnswers) Keyword() string {
	return withLocation(fmt.Sprintf("%s HR %s for %s compliance", a.HRNeed, a.DeliveryType, a.ComplianceNeed), a.LocationPref)
}

type ManufacturingQuizAnswers struct {
	LocationPref       string `json:"locationPref" yaml:"locationPref"`
	ProductType        string `json:"productType" yaml:"productType"`
	ProductionVolume   string `json:"productionVolume" yaml:"productionVolume"`
	LocationPreference string `json:"locationPreference" yaml:"locationPreference"`
	Priority           string `json:"priority" yaml:"priority"`
}

func (a ManufacturingQuizAnswers) Domain() QuizDomain { return DomainManufacturing }
func (a ManufacturingQuizAnswers) Location() string   { return a.LocationPref }

func (a ManufacturingQuizAnswers) Keyword() string {
	return withLocation(fmt.Sprintf("%s %s manufacturer %s focused on %s",
		a.ProductionVolume, a.ProductType, a.LocationPreference, a.Priority), a.LocationPref)
}

type MarketingQuizAnswers struct {
	LocationPref   string `json:"locationPref" yaml:"locationPref"`
	MarketingNeed  string `json:"marketingNeed" yaml:"marketingNeed"`
	TargetAudience string `json:"targetAudience" yaml:"targetAudience"`
	ServiceType    string `json:"serviceType" yaml:"serviceType"`
	MonthlyBudget  string `json:"monthlyBudget" yaml:"monthlyBudget"`
}

func (a MarketingQuizAnswers) Domain() QuizDomain { return DomainMarketing }
func (a MarketingQuizAnswers) Location() string   { return a.LocationPref }

func (a MarketingQuizAnswers) Keyword() string {
	return withLocation(fmt.Sprintf("%s marketing %s for %s", a.MarketingNeed, a.ServiceType, a.TargetAudience), a.LocationPref)
}

type MentalHealthQuizAnswers struct {
	LocationPref string `json:"locationPref" yaml:"locationPref"`
	SupportType  string `json:"supportType" yaml:"supportType"`
	ServiceType  string `json:"serviceType" yaml:"serviceType"`
	DeliveryType string `json:"deliveryType" yaml:"deliveryType"`
	Budget       string `json:"budget" yaml:"budget"`
}

func (a MentalHealthQuizAnswers) Domain() QuizDomain { return DomainMentalHealth }
func (a MentalHealthQuizAnswers) Location() string   { return a.LocationPref }

func (a MentalHealthQuizAnswers) Keyword() string {
	return withLocation(fmt.Sprintf("%s mental health %s %s", a.SupportType, a.ServiceType, a.DeliveryType), a.LocationPref)
}

type InsuranceQuizAnswers struct {
	LocationPref    string `json:"locationPref" yaml:"locationPref"`
	TypeOfCoverage  string `json:"typeOfCoverage" yaml:"typeOfCoverage"`
	IndustryRisks   string `json:"industryRisks" yaml:"industryRisks"`
	Budget          string `json:"budget" yaml:"budget"`
	LevelOfCoverage string `json:"levelOfCoverage" yaml:"levelOfCoverage"`
}

func (a InsuranceQuizAnswers) Domain() QuizDomain { return DomainInsurance }
func (a InsuranceQuizAnswers) Location() string   { return a.LocationPref }

func (a InsuranceQuizAnswers) Keyword() string {
	keyword := a.TypeOfCoverage + " insurance"
	if a.IndustryRisks != "" {
		keyword += fmt.Sprintf(" for %s business", a.IndustryRisks)
	}
	if a.LevelOfCoverage != "" {
		keyword += " " + strings.ToLower(a.LevelOfCoverage)
	}
	return withLocation(keyword, a.LocationPref)
}

type BankLoanQuizAnswers struct {
	LocationPref        string `json:"locationPref" yaml:"locationPref"`
	LoanPurpose         string `json:"loanPurpose" yaml:"loanPurpose"`
	LoanTerm            string `json:"loanTerm" yaml:"loanTerm"`
	CollateralAvailable bool   `json:"collateralAvailable" yaml:"collateralAvailable"`
}

func (a BankLoanQuizAnswers) Domain() QuizDomain { return DomainBankLoan }
func (a BankLoanQuizAnswers) Location() string   { return a.LocationPref }

func (a BankLoanQuizAnswers) Keyword() string {
	keyword := a.LoanPurpose + " loan lender"
	if a.LoanTerm != "" {
		keyword += fmt.Sprintf(" %s term", strings.ToLower(a.LoanTerm))
	}
	if a.CollateralAvailable {
		keyword += " with collateral"
	}
	return withLocation(keyword, a.LocationPref)
}

type CustomerServiceQuizAnswers struct {
	LocationPref     string `json:"locationPref" yaml:"locationPref"`
	ServiceType      string `json:"serviceType" yaml:"serviceType"`
	Volume           string `json:"volume" yaml:"volume"`
	Availability24x7 bool   `json:"availability24_7" yaml:"availability24_7"`
	LanguageSupport  string `json:"languageSupport" yaml:"languageSupport"`
}

func (a CustomerServiceQuizAnswers) Domain() QuizDomain { return DomainCustomerService }
func (a CustomerServiceQuizAnswers) Location() string   { return a.LocationPref }

func (a CustomerServiceQuizAnswers) Keyword() string {
	keyword := fmt.Sprintf("%s customer service for %s volume", a.ServiceType, a.Volume)
	if a.LanguageSupport != "" {
		keyword += fmt.Sprintf(" with %s support", a.LanguageSupport)
	}
	if a.Availability24x7 {
		keyword += " 24/7"
	}
	return withLocation(keyword, a.LocationPref)
}

type CSRQuizAnswers struct {
	LocationPref    string `json:"locationPref" yaml:"locationPref"`
	CSRFocus        string `json:"csrFocus" yaml:"csrFocus"`
	IndustryGoals   string `json:"industryGoals" yaml:"industryGoals"`
	ReportingMethod string `json:"reportingMethod" yaml:"reportingMethod"`
	Budget          string `json:"budget" yaml:"budget"`
}

func (a CSRQuizAnswers) Domain() QuizDomain { return DomainCSR }
func (a CSRQuizAnswers) Location() string   { return a.LocationPref }

func (a CSRQuizAnswers) Keyword() string {
	return withLocation(fmt.Sprintf("%s CSR team for %s with %s reporting", a.CSRFocus, a.IndustryGoals, a.ReportingMethod), a.LocationPref)
}
