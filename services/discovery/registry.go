package discovery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"circl/models"
)

type answersDecoder func(data []byte) (models.QuizAnswers, error)

func decodeAs[T models.QuizAnswers](data []byte) (models.QuizAnswers, error) {
	var answers T
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

var registry = map[models.QuizDomain]answersDecoder{
	models.DomainConsultant:      decodeAs[models.ConsultantQuizAnswers],
	models.DomainSales:           decodeAs[models.SalesQuizAnswers],
	models.DomainRealEstate:      decodeAs[models.RealEstateQuizAnswers],
	models.DomainInvestor:        decodeAs[models.InvestorQuizAnswers],
	models.DomainLegal:           decodeAs[models.LegalQuizAnswers],
	models.DomainAccountants:     decodeAs[models.AccountantsQuizAnswers],
	models.DomainHR:              decodeAs[models.HRQuizAnswers],
	models.DomainManufacturing:   decodeAs[models.ManufacturingQuizAnswers],
	models.DomainMarketing:       decodeAs[models.MarketingQuizAnswers],
	models.DomainMentalHealth:    decodeAs[models.MentalHealthQuizAnswers],
	models.DomainInsurance:       decodeAs[models.InsuranceQuizAnswers],
	models.DomainBankLoan:        decodeAs[models.BankLoanQuizAnswers],
	models.DomainCustomerService: decodeAs[models.CustomerServiceQuizAnswers],
	models.DomainCSR:             decodeAs[models.CSRQuizAnswers],
}

// Domains lists every registered quiz domain in name order.
func Domains() []models.QuizDomain {
	out := make([]models.QuizDomain, 0, len(registry))
	for d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DecodeAnswers builds the answers record for domain from a JSON object.
// Fields are taken as entered; an empty body yields a zero-valued record.
func DecodeAnswers(domain string, data []byte) (models.QuizAnswers, error) {
	decode, ok := registry[models.QuizDomain(domain)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	answers, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s answers: %w", domain, err)
	}
	return answers, nil
}
