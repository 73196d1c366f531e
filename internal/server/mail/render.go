package mail

import (
	"bytes"
	htmltemplate "html/template"
	"math"
	texttemplate "text/template"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/server/models"
)

const verificationSubject = "Verify your account - FoundationAuth API"

const verificationHTML = `<div style="font-family: Arial, sans-serif; padding: 20px; text-align: center; color: #333;">
  <h2 style="color: #4CAF50;">FoundationAuth API</h2>
  <p>Hello {{.Username}},</p>
  <p>Please click the button below to verify your account.</p>
  <table style="margin: 30px auto; border-collapse: collapse;">
    <tr>
      <td style="padding: 0;">
        <a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background-color: #007BFF; color: #ffffff; text-decoration: none; border-radius: 5px; font-weight: bold;">Verify my account</a>
      </td>
    </tr>
  </table>
  <p style="color: #888; font-size: 12px;">This link is valid for {{.ValidHours}} hours. If you did not request it, you can ignore this email.</p>
  <p style="color: #888; font-size: 12px;">The FoundationAuth team</p>
</div>
`

const verificationText = `Hello {{.Username}},

Please open the link below to verify your account:

{{.Link}}

This link is valid for {{.ValidHours}} hours. If you did not request it, you can ignore this email.

The FoundationAuth team
`

// Renderer produces the subject and bodies of verification emails.
type Renderer struct {
	html       *htmltemplate.Template
	text       *texttemplate.Template
	validHours int
}

func NewRenderer(validFor time.Duration) (*Renderer, error) {
	h, err := htmltemplate.New("verification.html").Parse(verificationHTML)
	if err != nil {
		return nil, err
	}
	t, err := texttemplate.New("verification.txt").Parse(verificationText)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		html:       h,
		text:       t,
		validHours: int(math.Ceil(validFor.Hours())),
	}, nil
}

type verificationData struct {
	Username   string
	Link       string
	ValidHours int
}

// Verification renders the message asking user to follow link.
func (r *Renderer) Verification(from Address, user *models.User, link string) (*Message, error) {
	data := verificationData{Username: user.Username, Link: link, ValidHours: r.validHours}

	var html, text bytes.Buffer
	if err := r.html.Execute(&html, data); err != nil {
		return nil, err
	}
	if err := r.text.Execute(&text, data); err != nil {
		return nil, err
	}

	return &Message{
		From:    from,
		To:      Address{Name: user.Username, Email: user.Email},
		Subject: verificationSubject,
		Text:    text.String(),
		HTML:    html.String(),
		Link:    link,
	}, nil
}
