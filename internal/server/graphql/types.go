package graphql

import (
	"context"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/server/loader"
	"github.com/akihokurino/works-server/internal/server/models"
	graphqlgo "github.com/graph-gophers/graphql-go"
)

type meResolver struct {
	root *Resolver
	user *models.User
}

func (m *meResolver) ID() graphqlgo.ID      { return graphqlgo.ID(m.user.ID) }
func (m *meResolver) MisocaConnected() bool { return m.user.IsConnected() }

func (m *meResolver) Sender(ctx context.Context) (*senderResolver, error) {
	sender, err := m.root.users.Sender(ctx, m.user.ID)
	if err != nil {
		return nil, m.root.fail(ctx, err)
	}
	if sender == nil {
		return nil, nil
	}
	return &senderResolver{sender}, nil
}

func (m *meResolver) Bank(ctx context.Context) (*bankResolver, error) {
	bank, err := m.root.users.Bank(ctx, m.user.ID)
	if err != nil {
		return nil, m.root.fail(ctx, err)
	}
	if bank == nil {
		return nil, nil
	}
	return &bankResolver{bank}, nil
}

func (m *meResolver) SupplierList(ctx context.Context) (*supplierConnectionResolver, error) {
	return m.root.supplierConnection(ctx, m.user.ID)
}

type senderResolver struct{ sender *models.Sender }

func (s *senderResolver) ID() graphqlgo.ID   { return graphqlgo.ID(s.sender.ID) }
func (s *senderResolver) Name() string       { return s.sender.Name }
func (s *senderResolver) Email() string      { return s.sender.Email }
func (s *senderResolver) Tel() string        { return s.sender.Tel }
func (s *senderResolver) PostalCode() string { return s.sender.PostalCode }
func (s *senderResolver) Address() string    { return s.sender.Address }

type bankResolver struct{ bank *models.Bank }

func (b *bankResolver) ID() graphqlgo.ID      { return graphqlgo.ID(b.bank.ID) }
func (b *bankResolver) Name() string          { return b.bank.Name }
func (b *bankResolver) Code() string          { return b.bank.Code }
func (b *bankResolver) AccountNumber() string { return b.bank.AccountNumber }

func (b *bankResolver) AccountType() string {
	if b.bank.AccountType == models.AccountTypeChecking {
		return "CHECKING"
	}
	return "SAVINGS"
}

func billingTypeFromEnum(s string) models.BillingType {
	switch s {
	case "MONTHLY":
		return models.BillingTypeMonthly
	case "ONE_TIME":
		return models.BillingTypeOneTime
	}
	return models.BillingType(s)
}

func billingTypeToEnum(b models.BillingType) string {
	if b == models.BillingTypeOneTime {
		return "ONE_TIME"
	}
	return "MONTHLY"
}

type supplierResolver struct {
	root     *Resolver
	supplier *models.Supplier
}

func (s *supplierResolver) ID() graphqlgo.ID               { return graphqlgo.ID(s.supplier.ID) }
func (s *supplierResolver) Name() string                   { return s.supplier.Name }
func (s *supplierResolver) BillingAmountIncludeTax() Int64 { return Int64(s.supplier.BillingAmountIncludeTax()) }
func (s *supplierResolver) BillingAmountExcludeTax() Int64 { return Int64(s.supplier.BillingAmount) }
func (s *supplierResolver) BillingType() string            { return billingTypeToEnum(s.supplier.BillingType) }
func (s *supplierResolver) Subject() string                { return s.supplier.Subject }
func (s *supplierResolver) SubjectTemplate() string        { return s.supplier.SubjectTemplate }

func (s *supplierResolver) EndYM() *string {
	if s.supplier.EndYM == "" {
		return nil
	}
	return &s.supplier.EndYM
}

// InvoiceList goes through the request's batch loader so a supplier list
// costs one invoice query.
func (s *supplierResolver) InvoiceList(ctx context.Context) (*invoiceConnectionResolver, error) {
	l, ok := loader.SupplierInvoicesFrom(ctx)
	if !ok {
		return nil, s.root.fail(ctx, common.ErrorInternal)
	}
	list, err := l.Load(ctx, s.supplier.ID)
	if err != nil {
		return nil, s.root.fail(ctx, err)
	}
	return &invoiceConnectionResolver{invoices: list}, nil
}

type supplierEdgeResolver struct{ node *supplierResolver }

func (e *supplierEdgeResolver) Node() *supplierResolver { return e.node }

type supplierConnectionResolver struct {
	root      *Resolver
	suppliers []*models.Supplier
}

func (c *supplierConnectionResolver) Edges() []*supplierEdgeResolver {
	edges := make([]*supplierEdgeResolver, 0, len(c.suppliers))
	for _, s := range c.suppliers {
		edges = append(edges, &supplierEdgeResolver{node: &supplierResolver{root: c.root, supplier: s}})
	}
	return edges
}

type invoiceResolver struct{ invoice *models.Invoice }

func (i *invoiceResolver) ID() graphqlgo.ID        { return graphqlgo.ID(i.invoice.ID) }
func (i *invoiceResolver) IssueYMD() string        { return i.invoice.IssueYMD.String() }
func (i *invoiceResolver) PaymentDueOnYMD() string { return i.invoice.PaymentDueOnYMD.String() }
func (i *invoiceResolver) InvoiceNumber() string   { return i.invoice.InvoiceNumber }
func (i *invoiceResolver) RecipientName() string   { return i.invoice.RecipientName }
func (i *invoiceResolver) Subject() string         { return i.invoice.Subject }
func (i *invoiceResolver) TotalAmount() Int64      { return Int64(i.invoice.TotalAmount) }
func (i *invoiceResolver) Tax() Int64              { return Int64(i.invoice.Tax) }
func (i *invoiceResolver) UpdatedAt() string       { return i.invoice.UpdatedAt.UTC().Format(time.RFC3339) }

func (i *invoiceResolver) PaymentStatus() string {
	if i.invoice.PaymentStatus == models.PaymentStatusPaid {
		return "PAID"
	}
	return "UNPAID"
}

func (i *invoiceResolver) InvoiceStatus() string {
	if i.invoice.InvoiceStatus == models.InvoiceStatusSubmitted {
		return "SUBMITTED"
	}
	return "UNSUBMITTED"
}

type invoiceEdgeResolver struct{ node *invoiceResolver }

func (e *invoiceEdgeResolver) Node() *invoiceResolver { return e.node }

type pageInfoResolver struct {
	total   int
	hasNext bool
}

func (p *pageInfoResolver) TotalCount() int32 { return int32(p.total) }
func (p *pageInfoResolver) HasNextPage() bool { return p.hasNext }

type invoiceConnectionResolver struct {
	invoices []*models.Invoice
	pageInfo *pageInfoResolver
}

func (c *invoiceConnectionResolver) Edges() []*invoiceEdgeResolver {
	edges := make([]*invoiceEdgeResolver, 0, len(c.invoices))
	for _, inv := range c.invoices {
		edges = append(edges, &invoiceEdgeResolver{node: &invoiceResolver{invoice: inv}})
	}
	return edges
}

func (c *invoiceConnectionResolver) PageInfo() *pageInfoResolver { return c.pageInfo }

type invoiceHistoryResolver struct {
	root *Resolver
	item *models.InvoiceHistory
}

func (h *invoiceHistoryResolver) ID() graphqlgo.ID { return graphqlgo.ID(h.item.Invoice.ID) }

func (h *invoiceHistoryResolver) Invoice() *invoiceResolver {
	return &invoiceResolver{invoice: h.item.Invoice}
}

func (h *invoiceHistoryResolver) Supplier() *supplierResolver {
	return &supplierResolver{root: h.root, supplier: h.item.Supplier}
}

type invoiceHistoryEdgeResolver struct{ node *invoiceHistoryResolver }

func (e *invoiceHistoryEdgeResolver) Node() *invoiceHistoryResolver { return e.node }

type invoiceHistoryConnectionResolver struct {
	root     *Resolver
	items    []*models.InvoiceHistory
	pageInfo *pageInfoResolver
}

func (c *invoiceHistoryConnectionResolver) Edges() []*invoiceHistoryEdgeResolver {
	edges := make([]*invoiceHistoryEdgeResolver, 0, len(c.items))
	for _, it := range c.items {
		edges = append(edges, &invoiceHistoryEdgeResolver{node: &invoiceHistoryResolver{root: c.root, item: it}})
	}
	return edges
}

func (c *invoiceHistoryConnectionResolver) PageInfo() *pageInfoResolver { return c.pageInfo }
