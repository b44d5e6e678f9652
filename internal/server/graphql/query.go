package graphql

import (
	"context"

	"github.com/akihokurino/works-server/internal/server/models"
	graphqlgo "github.com/graph-gophers/graphql-go"
)

func (r *Resolver) Me(ctx context.Context) (*meResolver, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := r.users.Get(ctx, id)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &meResolver{root: r, user: u}, nil
}

func (r *Resolver) AuthorizeURL(ctx context.Context, args struct{ State string }) (string, error) {
	if _, err := r.userID(ctx); err != nil {
		return "", err
	}
	return r.tokens.AuthorizeURL(args.State), nil
}

func (r *Resolver) SupplierList(ctx context.Context) (*supplierConnectionResolver, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}
	return r.supplierConnection(ctx, id)
}

func (r *Resolver) supplierConnection(ctx context.Context, userID string) (*supplierConnectionResolver, error) {
	list, err := r.suppliers.List(ctx, userID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &supplierConnectionResolver{root: r, suppliers: list}, nil
}

type invoiceListArgs struct {
	SupplierID graphqlgo.ID
	Page       int32
	Limit      int32
}

func (r *Resolver) InvoiceList(ctx context.Context, args invoiceListArgs) (*invoiceConnectionResolver, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := r.invoices.ListBySupplier(ctx, id, string(args.SupplierID), models.NewPager(int(args.Page), int(args.Limit)))
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &invoiceConnectionResolver{
		invoices: p.Invoices,
		pageInfo: &pageInfoResolver{total: p.TotalCount, hasNext: p.HasNext},
	}, nil
}

type pageArgs struct {
	Page  int32
	Limit int32
}

func (r *Resolver) InvoiceHistoryList(ctx context.Context, args pageArgs) (*invoiceHistoryConnectionResolver, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := r.invoices.History(ctx, id, models.NewPager(int(args.Page), int(args.Limit)))
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &invoiceHistoryConnectionResolver{
		root:     r,
		items:    p.Items,
		pageInfo: &pageInfoResolver{total: p.TotalCount, hasNext: p.HasNext},
	}, nil
}
