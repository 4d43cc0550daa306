package features

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/fjod/go_pos/internal/cart"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/shopspring/decimal"
)

type cartTestContext struct {
	cart *cart.Manager
}

func (c *cartTestContext) reset() {
	c.cart = cart.NewManager()
}

func toItem(id int64, price string) (domain.Item, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Item{}, err
	}
	return domain.Item{ID: id, Name: fmt.Sprintf("item %d", id), Price: p}, nil
}

func (c *cartTestContext) anEmptyCart() error {
	c.reset()
	return nil
}

func (c *cartTestContext) iSetToQuantity(itemType string, id int64, price string, quantity int) error {
	it, err := toItem(id, price)
	if err != nil {
		return err
	}
	c.cart.AddOrSetLine(it, domain.ItemType(itemType), quantity)
	return nil
}

func (c *cartTestContext) iIncrementTimes(itemType string, id int64, price string, times int) error {
	it, err := toItem(id, price)
	if err != nil {
		return err
	}
	for i := 0; i < times; i++ {
		c.cart.Increment(it, domain.ItemType(itemType))
	}
	return nil
}

func (c *cartTestContext) iDecrementTimes(itemType string, id int64, times int) error {
	for i := 0; i < times; i++ {
		c.cart.Decrement(domain.Item{ID: id}, domain.ItemType(itemType))
	}
	return nil
}

func (c *cartTestContext) iRemove(itemType string, id int64) error {
	c.cart.Remove(domain.NewCartKey(domain.ItemType(itemType), id))
	return nil
}

func (c *cartTestContext) theCartHasWithQuantity(itemType string, id int64, quantity int) error {
	got := c.cart.QuantityOf(id, domain.ItemType(itemType))
	if got != quantity {
		return fmt.Errorf("expected %s-%d quantity %d, got %d", itemType, id, quantity, got)
	}
	return nil
}

func (c *cartTestContext) theCartDoesNotContain(itemType string, id int64) error {
	if c.cart.Contains(id, domain.ItemType(itemType)) {
		return fmt.Errorf("expected %s-%d to be absent", itemType, id)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIsAndCountIs(total string, count int) error {
	want, err := decimal.NewFromString(total)
	if err != nil {
		return err
	}
	if !c.cart.Total().Equal(want) {
		return fmt.Errorf("expected total %s, got %s", want, c.cart.Total())
	}
	if c.cart.Count() != count {
		return fmt.Errorf("expected count %d, got %d", count, c.cart.Count())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)

	// When steps
	ctx.Step(`^I set (product|service) (\d+) priced ([\d.]+) to quantity (-?\d+)$`, tc.iSetToQuantity)
	ctx.Step(`^I increment (product|service) (\d+) priced ([\d.]+) (\d+) times$`, tc.iIncrementTimes)
	ctx.Step(`^I decrement (product|service) (\d+) (\d+) times$`, tc.iDecrementTimes)
	ctx.Step(`^I remove (product|service) (\d+)$`, tc.iRemove)

	// Then steps
	ctx.Step(`^the cart has (product|service) (\d+) with quantity (\d+)$`, tc.theCartHasWithQuantity)
	ctx.Step(`^the cart does not contain (product|service) (\d+)$`, tc.theCartDoesNotContain)
	ctx.Step(`^the cart total is ([\d.]+) and count is (\d+)$`, tc.theCartTotalIsAndCountIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
