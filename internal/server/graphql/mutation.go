package graphql

import (
	"context"

	"github.com/akihokurino/works-server/internal/server/models"
	graphqlgo "github.com/graph-gophers/graphql-go"
)

func (r *Resolver) Authenticate(ctx context.Context) (*meResolver, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := r.users.Authenticate(ctx, id, r.now())
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &meResolver{root: r, user: u}, nil
}

type connectMisocaArgs struct {
	Input struct{ Code string }
}

// ConnectMisoca stores the account link and runs a first full sync with
// the access token from the code exchange.
func (r *Resolver) ConnectMisoca(ctx context.Context, args connectMisocaArgs) (bool, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return false, err
	}
	token, err := r.tokens.Connect(ctx, id, args.Input.Code, r.now())
	if err != nil {
		return false, r.fail(ctx, err)
	}
	if err := r.sync.SyncUserWithToken(ctx, id, token); err != nil {
		return false, r.fail(ctx, err)
	}
	return true, nil
}

func (r *Resolver) RefreshMisoca(ctx context.Context) (bool, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return false, err
	}
	if err := r.sync.SyncUser(ctx, id, r.now()); err != nil {
		return false, r.fail(ctx, err)
	}
	return true, nil
}

type supplierInput struct {
	Name            string
	BillingAmount   Int64
	BillingType     string
	EndYM           *string
	Subject         string
	SubjectTemplate string
}

func (in supplierInput) params() models.SupplierParams {
	p := models.SupplierParams{
		Name:            in.Name,
		BillingAmount:   int64(in.BillingAmount),
		BillingType:     billingTypeFromEnum(in.BillingType),
		Subject:         in.Subject,
		SubjectTemplate: in.SubjectTemplate,
	}
	if in.EndYM != nil {
		p.EndYM = *in.EndYM
	}
	return p
}

func (r *Resolver) CreateSupplier(ctx context.Context, args struct{ Input supplierInput }) (*supplierResolver, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.suppliers.Create(ctx, id, args.Input.params(), r.now())
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &supplierResolver{root: r, supplier: s}, nil
}

type updateSupplierInput struct {
	ID              graphqlgo.ID
	Name            string
	BillingAmount   Int64
	BillingType     string
	EndYM           *string
	Subject         string
	SubjectTemplate string
}

func (in updateSupplierInput) params() models.SupplierParams {
	return supplierInput{
		Name:            in.Name,
		BillingAmount:   in.BillingAmount,
		BillingType:     in.BillingType,
		EndYM:           in.EndYM,
		Subject:         in.Subject,
		SubjectTemplate: in.SubjectTemplate,
	}.params()
}

func (r *Resolver) UpdateSupplier(ctx context.Context, args struct{ Input updateSupplierInput }) (*supplierResolver, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.suppliers.Update(ctx, id, string(args.Input.ID), args.Input.params(), r.now())
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &supplierResolver{root: r, supplier: s}, nil
}

func (r *Resolver) DeleteSupplier(ctx context.Context, args struct{ Input struct{ ID graphqlgo.ID } }) (bool, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return false, err
	}
	if err := r.suppliers.Delete(ctx, id, string(args.Input.ID)); err != nil {
		return false, r.fail(ctx, err)
	}
	return true, nil
}

func (r *Resolver) DownloadInvoicePdf(ctx context.Context, args struct{ Input struct{ InvoiceID graphqlgo.ID } }) (string, error) {
	id, err := r.userID(ctx)
	if err != nil {
		return "", err
	}
	url, err := r.invoices.DownloadPDF(ctx, id, string(args.Input.InvoiceID), r.now())
	if err != nil {
		return "", r.fail(ctx, err)
	}
	return url, nil
}
