package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// RazorpayService talks to the Razorpay REST API for escrow payments:
// create an order for the transaction amount, then verify the checkout
// callback before the payment event is accepted.
type RazorpayService struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

func NewRazorpayService() *RazorpayService {
	return &RazorpayService{
		KeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		KeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		BaseURL:   "https://api.razorpay.com/v1",
	}
}

type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // in paise (₹1 = 100 paise)
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type RazorpayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates a gateway order for amountRupees against the given
// receipt reference.
func (s *RazorpayService) CreateOrder(amountRupees int64, receipt string) (*RazorpayOrder, error) {
	payload := map[string]interface{}{
		"amount":   amountRupees * 100, // Razorpay expects paise
		"currency": "INR",
		"receipt":  receipt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.KeyID, s.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr razorpayError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay create order: %s", apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay create order: status %d", resp.StatusCode)
	}

	var order RazorpayOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("razorpay create order: decode response: %w", err)
	}
	return &order, nil
}

// VerifySignature checks the checkout callback signature:
// HMAC-SHA256(order_id + "|" + payment_id, key_secret).
func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// FetchPayment fetches the payment record to confirm capture and amount.
func (s *RazorpayService) FetchPayment(paymentID string) (*RazorpayPayment, error) {
	req, err := http.NewRequest(http.MethodGet, s.BaseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.KeyID, s.KeySecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch payment: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("razorpay fetch payment: status %d", resp.StatusCode)
	}

	var payment RazorpayPayment
	if err := json.Unmarshal(data, &payment); err != nil {
		return nil, fmt.Errorf("razorpay fetch payment: decode response: %w", err)
	}
	return &payment, nil
}
