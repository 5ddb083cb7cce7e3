package helpers

import (
	"strconv"
	"strings"
	"sync"

	model "auction-marketplace/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("int_id", validateIntID)
		_ = v.RegisterValidation("decimal_amount", validateBidAmount)
		_ = v.RegisterValidation("decimal_price", validateStartingPrice)
	})
}

// ParseID parses a positive int64 identifier
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseMoney parses a decimal with at most two fractional digits within column range
func ParseMoney(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, false
	}
	if !model.MoneyFits(d) {
		return decimal.Decimal{}, false
	}
	return d, true
}

func validateIntID(fl validator.FieldLevel) bool {
	_, ok := ParseID(fl.Field().String())
	return ok
}

func validateBidAmount(fl validator.FieldLevel) bool {
	d, ok := ParseMoney(fl.Field().String())
	return ok && d.IsPositive()
}

func validateStartingPrice(fl validator.FieldLevel) bool {
	d, ok := ParseMoney(fl.Field().String())
	return ok && !d.IsNegative()
}
