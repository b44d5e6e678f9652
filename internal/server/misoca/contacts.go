package misoca

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type Contact struct {
	ID             flexID `json:"id"`
	ContactGroupID flexID `json:"contact_group_id"`
	RecipientName  string `json:"recipient_name"`
}

func (c Contact) IDString() string             { return string(c.ID) }
func (c Contact) ContactGroupIDString() string { return string(c.ContactGroupID) }

func (c *Client) GetContacts(ctx context.Context, accessToken string, page, perPage int) ([]Contact, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var out []Contact
	if err := c.call(ctx, http.MethodGet, "/api/v3/contacts", accessToken, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateContact(ctx context.Context, accessToken string, recipientName string) (*Contact, error) {
	body := struct {
		RecipientName string `json:"recipient_name"`
	}{RecipientName: recipientName}

	var out Contact
	if err := c.call(ctx, http.MethodPost, "/api/v3/contact", accessToken, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
