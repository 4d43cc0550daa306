// Package pos wires registers together from the cart, checkout, sales and
// history packages.
package pos

import (
	"context"
	"sync"

	"github.com/fjod/go_pos/internal/checkout"
	"github.com/fjod/go_pos/internal/history"
	"github.com/fjod/go_pos/internal/sales"
	"github.com/fjod/go_pos/internal/session"
	"go.uber.org/zap"
)

const DefaultRegisterID = "main"

type Deps struct {
	CartStore    session.CartPersister
	Transactions sales.TransactionStore
	Inventory    sales.InventoryCache
	Events       sales.EventPublisher
	Customers    *CustomerBook
	Settler      checkout.Settler
	Sales        sales.Config
	HistoryLimit int
}

// Registry hands out registers by id, creating them on first use.
type Registry struct {
	mu        sync.Mutex
	registers map[string]*Register
	deps      Deps
	logger    *zap.Logger
}

func NewRegistry(deps Deps, logger *zap.Logger) *Registry {
	if deps.Customers == nil {
		deps.Customers = NewCustomerBook()
	}
	if deps.Settler == nil {
		deps.Settler = checkout.SimulatedSettler{}
	}
	return &Registry{
		registers: make(map[string]*Register),
		deps:      deps,
		logger:    logger,
	}
}

func (r *Registry) Customers() *CustomerBook {
	return r.deps.Customers
}

func (r *Registry) Get(id string) *Register {
	if id == "" {
		id = DefaultRegisterID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.registers[id]; ok {
		return reg
	}

	log := r.logger.With(zap.String("register_id", id))
	recent := sales.NewRecentSales(r.deps.HistoryLimit)
	reg := &Register{
		ID:        id,
		session:   session.New(r.deps.CartStore, log),
		customers: r.deps.Customers,
		logger:    log,
	}
	reg.persister = sales.NewPersister(r.deps.Transactions, r.deps.Inventory, r.deps.Events, recent, r.deps.Sales, log)
	reg.history = history.NewView(r.deps.Transactions, reg.persister, r.deps.Customers, log)
	reg.checkout = checkout.NewMachine(reg.session, r.deps.Settler, reg.completePayment, log)

	r.registers[id] = reg
	log.Info("register opened")
	return reg
}

// Wait blocks until every register's background syncs finish or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	r.mu.Lock()
	regs := make([]*Register, 0, len(r.registers))
	for _, reg := range r.registers {
		regs = append(regs, reg)
	}
	r.mu.Unlock()

	for _, reg := range regs {
		if err := reg.persister.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
