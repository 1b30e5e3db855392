package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

// SubjectPrefix precedes the request title in update emails.
const SubjectPrefix = "Aggiornamento richiesta: "

// UpdateMessage carries the values interpolated into a request update email.
type UpdateMessage struct {
	RecipientName string
	Titolo        string
	Note          string
}

type htmlView struct {
	RecipientName string
	Titolo        string
	Note          template.HTML
}

var updateHTML = template.Must(template.New("update").Parse(`<html>
  <body style="margin:0;padding:0;background:#f5f7fa;font-family:Arial,Helvetica,sans-serif;">
    <table role="presentation" width="100%" style="background:#f5f7fa;padding:24px 0;">
      <tr>
        <td align="center">
          <table role="presentation" width="600" style="background:#ffffff;border-radius:8px;overflow:hidden;border:1px solid #e6e9ef;">
            <tr style="background:#003087;color:#ffffff;">
              <td style="padding:18px 24px;font-weight:700;font-size:18px;">LazioSegnala</td>
            </tr>
            <tr>
              <td style="padding:20px 24px;color:#17324D;">
                <p style="margin:0 0 12px 0;font-size:15px;">Gentile {{.RecipientName}},</p>
                <p style="margin:0 0 12px 0;font-size:14px;">Di seguito un aggiornamento relativo alla sua richiesta: <strong>{{.Titolo}}</strong></p>
                <div style="margin:12px 0;padding:14px;border-radius:6px;background:#F5F8FB;border:1px solid #E6EEF9;font-size:14px;">{{.Note}}</div>
                <p style="margin:14px 0 0 0;font-size:13px;color:#6b7280;">Cordiali saluti,<br/>Protezione Civile Regione Lazio</p>
              </td>
            </tr>
            <tr>
              <td style="padding:12px 24px;font-size:12px;color:#8b95a6;border-top:1px solid #eef2f6;">Questa è una comunicazione automatica inviata da LazioSegnala.</td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>
`))

var updateText = texttemplate.Must(texttemplate.New("update").Parse(`Gentile {{.RecipientName}},

Di seguito un aggiornamento relativo alla sua richiesta: {{.Titolo}}

{{.Note}}

Cordiali saluti,
Protezione Civile Regione Lazio
`))

var headerSanitizer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// BuildUpdateEmail renders the request update email addressed to `to`.
func BuildUpdateEmail(to string, msg UpdateMessage) (Email, error) {
	note := strings.ReplaceAll(msg.Note, "\r\n", "\n")

	var html bytes.Buffer
	if err := updateHTML.Execute(&html, htmlView{
		RecipientName: msg.RecipientName,
		Titolo:        msg.Titolo,
		Note:          template.HTML(noteToHTML(note)),
	}); err != nil {
		return Email{}, fmt.Errorf("render html body: %w", err)
	}

	var text bytes.Buffer
	if err := updateText.Execute(&text, UpdateMessage{
		RecipientName: msg.RecipientName,
		Titolo:        msg.Titolo,
		Note:          note,
	}); err != nil {
		return Email{}, fmt.Errorf("render text body: %w", err)
	}

	return Email{
		To:       to,
		Subject:  SubjectPrefix + headerSanitizer.Replace(msg.Titolo),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

// noteToHTML escapes the note and turns newlines into <br/>.
func noteToHTML(note string) string {
	return strings.ReplaceAll(template.HTMLEscapeString(note), "\n", "<br/>")
}
