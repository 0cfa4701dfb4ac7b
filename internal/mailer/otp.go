package mailer

import (
	"bytes"
	"html/template"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Brand is the product name shown in outbound email.
const Brand = "MLA Public Engagement Platform"

// PurposeLabel returns the heading used for an OTP purpose.
func PurposeLabel(purpose string) string {
	switch purpose {
	case "login":
		return "Login Verification"
	case "registration":
		return "Registration Verification"
	case "password_reset":
		return "Password Reset Verification"
	default:
		return "Verification"
	}
}

var lower = cases.Lower(language.English)

var otpHTML = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background-color: #FF9933; color: white; padding: 20px; text-align: center; }
.content { background-color: #f9f9f9; padding: 30px; margin: 20px 0; }
.otp-box { background-color: #ffffff; border: 2px dashed #FF9933; padding: 20px; text-align: center; margin: 20px 0; }
.otp-code { font-size: 32px; font-weight: bold; color: #FF9933; letter-spacing: 5px; }
.footer { text-align: center; color: #666; font-size: 12px; margin-top: 20px; }
.warning { color: #d9534f; font-size: 12px; margin-top: 10px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h2>{{.Brand}}</h2></div>
<div class="content">
<h3>{{.Label}}</h3>
<p>Hello,</p>
<p>Your OTP (One-Time Password) for {{.LabelLower}} is:</p>
<div class="otp-box"><div class="otp-code">{{.Code}}</div></div>
<p>This OTP is valid for <strong>{{.Minutes}} minutes</strong> only.</p>
<p class="warning">Do not share this OTP with anyone. Our team will never ask for your OTP.</p>
<p>If you did not request this OTP, please ignore this email.</p>
</div>
<div class="footer">
<p>This is an automated message. Please do not reply to this email.</p>
<p>&copy; {{.Year}} {{.Brand}}. All rights reserved.</p>
</div>
</div>
</body>
</html>
`))

type otpView struct {
	Brand      string
	Label      string
	LabelLower string
	Code       string
	Minutes    int
	Year       int
}

// OTPMessage renders the OTP email for to. ttl is stated in whole minutes.
func OTPMessage(to, code, purpose string, ttl time.Duration, now time.Time) (Message, error) {
	label := PurposeLabel(purpose)
	view := otpView{
		Brand:      Brand,
		Label:      label,
		LabelLower: lower.String(label),
		Code:       code,
		Minutes:    int(ttl / time.Minute),
		Year:       now.Year(),
	}
	var html bytes.Buffer
	if err := otpHTML.Execute(&html, view); err != nil {
		return Message{}, err
	}
	minutes := strconv.Itoa(view.Minutes)
	text := Brand + "\n" + label + "\n\n" +
		"Your OTP Code is: " + code + "\n\n" +
		"This OTP is valid for " + minutes + " minutes only.\n\n" +
		"Do not share this OTP with anyone. If you did not request this OTP, please ignore this email.\n\n" +
		"This is an automated message. Please do not reply to this email.\n"
	return Message{
		To:      to,
		Subject: label + " - OTP Code",
		Text:    text,
		HTML:    html.String(),
	}, nil
}
