package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signCallback(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := &RazorpayService{KeySecret: "test_secret"}

	orderID := "order_MkWq3bZ1"
	paymentID := "pay_NlXr4cA2"
	good := signCallback("test_secret", orderID, paymentID)

	if !svc.VerifySignature(orderID, paymentID, good) {
		t.Error("valid signature rejected")
	}
	if svc.VerifySignature(orderID, paymentID, good[:len(good)-2]+"00") {
		t.Error("tampered signature accepted")
	}
	if svc.VerifySignature(orderID, "pay_other", good) {
		t.Error("signature accepted for a different payment id")
	}
	if svc.VerifySignature(orderID, paymentID, "") {
		t.Error("empty signature accepted")
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	svc := &RazorpayService{KeySecret: "real_secret"}
	forged := signCallback("guessed_secret", "order_1", "pay_1")

	if svc.VerifySignature("order_1", "pay_1", forged) {
		t.Error("signature from the wrong secret accepted")
	}
}

func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("otp %q is not 6 digits", otp)
		}
		for _, r := range otp {
			if r < '0' || r > '9' {
				t.Fatalf("otp %q contains non-digit", otp)
			}
		}
	}
}
