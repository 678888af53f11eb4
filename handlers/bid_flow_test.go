package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"truckdrive-api/config"
	"truckdrive-api/models"

	"github.com/gin-gonic/gin"
)

func TestEndToEndBidAcceptance(t *testing.T) {
	r := setupRouter(t)

	customerToken, customerID := registerUser(t, r, "Carla", "carla@example.com", models.RoleCustomer)
	driverToken, driverID := setupDriver(t, r, "Dan", "dan@example.com", "Boston")
	rivalToken, rivalID := setupDriver(t, r, "Rita", "rita@example.com", "Boston")

	requestID := createRequest(t, r, customerToken, "123 Main St, Downtown, Boston, MA")

	// Both Boston drivers see the request
	w, resp := doJSON(t, r, "GET", "/api/driver/requests/available", driverToken, nil)
	if w.Code != http.StatusOK || resp["count"].(float64) != 1 {
		t.Fatalf("driver should see 1 request, got status %d body %s", w.Code, w.Body.String())
	}

	// Dan bids 280, Rita bids 300
	w, resp = doJSON(t, r, "POST", "/api/driver/requests/"+itoa(requestID)+"/bids", driverToken, gin.H{"bid_amount": 280.0})
	if w.Code != http.StatusCreated {
		t.Fatalf("place bid: status %d body %s", w.Code, w.Body.String())
	}
	bidID := uint(resp["bid"].(map[string]interface{})["id"].(float64))

	w, _ = doJSON(t, r, "POST", "/api/driver/requests/"+itoa(requestID)+"/bids", rivalToken, gin.H{"bid_amount": 300.0})
	if w.Code != http.StatusCreated {
		t.Fatalf("place rival bid: status %d body %s", w.Code, w.Body.String())
	}

	var request models.DeliveryRequest
	config.DB.First(&request, requestID)
	if request.BidCount != 2 {
		t.Errorf("bid count = %d, want 2", request.BidCount)
	}

	// Customer accepts Dan's bid
	w, _ = doJSON(t, r, "PUT", "/api/customer/bids/"+itoa(bidID)+"/accept", customerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept bid: status %d body %s", w.Code, w.Body.String())
	}

	// Accepted bid, rejected rival, assigned request
	var bids []models.Bid
	config.DB.Where("request_id = ?", requestID).Find(&bids)
	accepted := 0
	for _, b := range bids {
		switch b.ID {
		case bidID:
			if b.Status != models.BidAccepted {
				t.Errorf("winning bid status = %s, want accepted", b.Status)
			}
			if b.AcceptedAt == nil {
				t.Error("winning bid should carry an acceptance timestamp")
			}
		default:
			if b.Status != models.BidRejected {
				t.Errorf("competing bid %d status = %s, want rejected", b.ID, b.Status)
			}
		}
		if b.Status == models.BidAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("request has %d accepted bids, want exactly 1", accepted)
	}

	config.DB.First(&request, requestID)
	if request.Status != models.RequestAccepted {
		t.Errorf("request status = %s, want accepted", request.Status)
	}
	if request.AssignedDriverID == nil || *request.AssignedDriverID != driverID {
		t.Errorf("request assigned driver = %v, want %d", request.AssignedDriverID, driverID)
	}
	if request.FinalPrice != 280 {
		t.Errorf("request final price = %v, want 280", request.FinalPrice)
	}

	// A delivery exists, assigned, priced at the winning bid
	var delivery models.Delivery
	if err := config.DB.Where("request_id = ?", requestID).First(&delivery).Error; err != nil {
		t.Fatalf("no delivery spawned for request: %v", err)
	}
	if delivery.Status != models.DeliveryAssigned || delivery.FinalPrice != 280 || delivery.DriverID != driverID {
		t.Errorf("delivery = %+v, want assigned/280/driver %d", delivery, driverID)
	}

	// The winning driver is now unavailable, the rival is not.
	// Fresh dest structs per lookup: reusing one would fold its
	// primary key into the next query's conditions.
	var winner models.Driver
	config.DB.First(&winner, driverID)
	if winner.IsAvailable {
		t.Error("assigned driver should be unavailable")
	}
	var rival models.Driver
	config.DB.First(&rival, rivalID)
	if !rival.IsAvailable {
		t.Error("rival driver should remain available")
	}

	// A contact links the two parties
	var contact models.Contact
	if err := config.DB.Where("request_id = ?", requestID).First(&contact).Error; err != nil {
		t.Fatalf("no contact created: %v", err)
	}
	if contact.CustomerID != customerID || contact.DriverID != driverID || contact.BidID != bidID {
		t.Errorf("contact = %+v, want customer %d driver %d bid %d", contact, customerID, driverID, bidID)
	}

	// Both parties can message over the contact
	w, _ = doJSON(t, r, "POST", "/api/contacts/"+itoa(contact.ID)+"/messages", customerToken, gin.H{"body": "See you at 9"})
	if w.Code != http.StatusCreated {
		t.Fatalf("customer message: status %d body %s", w.Code, w.Body.String())
	}
	w, resp = doJSON(t, r, "GET", "/api/contacts/"+itoa(contact.ID)+"/messages", driverToken, nil)
	if w.Code != http.StatusOK || resp["count"].(float64) != 1 {
		t.Fatalf("driver should read 1 message, got status %d body %s", w.Code, w.Body.String())
	}
	// An uninvolved user may not
	w, _ = doJSON(t, r, "GET", "/api/contacts/"+itoa(contact.ID)+"/messages", rivalToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider reading messages: status %d, want 403", w.Code)
	}
}

func TestAcceptBidUnauthorized(t *testing.T) {
	r := setupRouter(t)

	ownerToken, _ := registerUser(t, r, "Owner", "owner@example.com", models.RoleCustomer)
	strangerToken, _ := registerUser(t, r, "Stranger", "stranger@example.com", models.RoleCustomer)
	driverToken, _ := setupDriver(t, r, "Dan", "dan@example.com", "Boston")

	requestID := createRequest(t, r, ownerToken, "123 Main St, Downtown, Boston, MA")
	w, resp := doJSON(t, r, "POST", "/api/driver/requests/"+itoa(requestID)+"/bids", driverToken, gin.H{"bid_amount": 280.0})
	if w.Code != http.StatusCreated {
		t.Fatalf("place bid: status %d body %s", w.Code, w.Body.String())
	}
	bidID := uint(resp["bid"].(map[string]interface{})["id"].(float64))

	w, _ = doJSON(t, r, "PUT", "/api/customer/bids/"+itoa(bidID)+"/accept", strangerToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign accept: status %d, want 403", w.Code)
	}

	// No state changed
	var bid models.Bid
	config.DB.First(&bid, bidID)
	if bid.Status != models.BidPending {
		t.Errorf("bid status = %s, want pending", bid.Status)
	}
	var request models.DeliveryRequest
	config.DB.First(&request, requestID)
	if request.Status != models.RequestPending || request.AssignedDriverID != nil {
		t.Errorf("request mutated by unauthorized accept: %+v", request)
	}
	var deliveries int64
	config.DB.Model(&models.Delivery{}).Count(&deliveries)
	if deliveries != 0 {
		t.Errorf("delivery count = %d, want 0", deliveries)
	}
}

func TestDeclineBidLeavesRequestAlone(t *testing.T) {
	r := setupRouter(t)

	customerToken, _ := registerUser(t, r, "Carla", "carla@example.com", models.RoleCustomer)
	driverToken, _ := setupDriver(t, r, "Dan", "dan@example.com", "Boston")
	rivalToken, _ := setupDriver(t, r, "Rita", "rita@example.com", "Boston")

	requestID := createRequest(t, r, customerToken, "123 Main St, Downtown, Boston, MA")
	_, resp := doJSON(t, r, "POST", "/api/driver/requests/"+itoa(requestID)+"/bids", driverToken, gin.H{"bid_amount": 280.0})
	bidID := uint(resp["bid"].(map[string]interface{})["id"].(float64))
	doJSON(t, r, "POST", "/api/driver/requests/"+itoa(requestID)+"/bids", rivalToken, gin.H{"bid_amount": 300.0})

	w, _ := doJSON(t, r, "PUT", "/api/customer/bids/"+itoa(bidID)+"/decline", customerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("decline bid: status %d body %s", w.Code, w.Body.String())
	}

	var bid models.Bid
	config.DB.First(&bid, bidID)
	if bid.Status != models.BidDeclined || bid.DeclinedAt == nil {
		t.Errorf("bid = %+v, want declined with timestamp", bid)
	}

	// Request and the other bid are untouched
	var request models.DeliveryRequest
	config.DB.First(&request, requestID)
	if request.Status != models.RequestPending {
		t.Errorf("request status = %s, want pending", request.Status)
	}
	var others int64
	config.DB.Model(&models.Bid{}).
		Where("request_id = ? AND status = ?", requestID, models.BidPending).
		Count(&others)
	if others != 1 {
		t.Errorf("pending bids after decline = %d, want 1", others)
	}
}

func TestDuplicatePendingBidRejected(t *testing.T) {
	r := setupRouter(t)

	customerToken, _ := registerUser(t, r, "Carla", "carla@example.com", models.RoleCustomer)
	driverToken, _ := setupDriver(t, r, "Dan", "dan@example.com", "Boston")

	requestID := createRequest(t, r, customerToken, "123 Main St, Downtown, Boston, MA")
	w, _ := doJSON(t, r, "POST", "/api/driver/requests/"+itoa(requestID)+"/bids", driverToken, gin.H{"bid_amount": 280.0})
	if w.Code != http.StatusCreated {
		t.Fatalf("first bid: status %d", w.Code)
	}
	w, _ = doJSON(t, r, "POST", "/api/driver/requests/"+itoa(requestID)+"/bids", driverToken, gin.H{"bid_amount": 260.0})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate bid: status %d, want 409", w.Code)
	}

	var request models.DeliveryRequest
	config.DB.First(&request, requestID)
	if request.BidCount != 1 {
		t.Errorf("bid count = %d, want 1", request.BidCount)
	}
}

func TestDeclineRequestIdempotent(t *testing.T) {
	r := setupRouter(t)

	customerToken, _ := registerUser(t, r, "Carla", "carla@example.com", models.RoleCustomer)
	driverToken, driverID := setupDriver(t, r, "Dan", "dan@example.com", "Boston")

	requestID := createRequest(t, r, customerToken, "123 Main St, Downtown, Boston, MA")

	for i := 0; i < 2; i++ {
		w, _ := doJSON(t, r, "PUT", "/api/driver/requests/"+itoa(requestID)+"/decline", driverToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("decline #%d: status %d body %s", i+1, w.Code, w.Body.String())
		}
	}

	var request models.DeliveryRequest
	config.DB.First(&request, requestID)
	occurrences := 0
	for _, id := range request.DeclinedDrivers {
		if id == driverID {
			occurrences++
		}
	}
	if occurrences != 1 {
		t.Errorf("driver appears %d times in declined list, want exactly 1", occurrences)
	}
	if request.Status != models.RequestPending {
		t.Errorf("request status = %s, want pending", request.Status)
	}

	// The declining driver no longer sees the request
	w, resp := doJSON(t, r, "GET", "/api/driver/requests/available", driverToken, nil)
	if w.Code != http.StatusOK || resp["count"].(float64) != 0 {
		t.Errorf("declined request still visible: body %s", w.Body.String())
	}

	// The declined row is still a readable request for everyone else:
	// another driver in the city sees it and the customer can list it
	rivalToken, _ := setupDriver(t, r, "Rita", "rita@example.com", "Boston")
	w, resp = doJSON(t, r, "GET", "/api/driver/requests/available", rivalToken, nil)
	if w.Code != http.StatusOK || resp["count"].(float64) != 1 {
		t.Errorf("other drivers should still see the request: body %s", w.Body.String())
	}
	w, resp = doJSON(t, r, "GET", "/api/customer/requests", customerToken, nil)
	if w.Code != http.StatusOK || resp["count"].(float64) != 1 {
		t.Errorf("customer listing broken after decline: body %s", w.Body.String())
	}
}

func TestRequestVisibilityGates(t *testing.T) {
	r := setupRouter(t)

	customerToken, _ := registerUser(t, r, "Carla", "carla@example.com", models.RoleCustomer)
	createRequest(t, r, customerToken, "123 Main St, Downtown, Boston, MA")

	driverToken, driverID := setupDriver(t, r, "Dan", "dan@example.com", "Boston")

	assertReason := func(want string) {
		t.Helper()
		w, resp := doJSON(t, r, "GET", "/api/driver/requests/available", driverToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("available requests: status %d", w.Code)
		}
		if resp["count"].(float64) != 0 {
			t.Fatalf("expected empty list, got %v", resp["count"])
		}
		if got := resp["reason"]; got != want {
			t.Errorf("reason = %v, want %s", got, want)
		}
	}

	// Stale location (older than 24h) hides everything despite city match
	stale := time.Now().Add(-25 * time.Hour)
	config.DB.Model(&models.Driver{}).Where("id = ?", driverID).Update("last_location_update", stale)
	assertReason("location_stale")

	// Offline driver sees nothing
	config.DB.Model(&models.Driver{}).Where("id = ?", driverID).Update("last_location_update", time.Now())
	config.DB.Model(&models.Driver{}).Where("id = ?", driverID).Update("is_available", false)
	assertReason("offline")

	// Missing city
	config.DB.Model(&models.Driver{}).Where("id = ?", driverID).
		Updates(map[string]interface{}{"is_available": true, "current_city": ""})
	assertReason("no_location")

	// Wrong city yields an empty list with no gating reason
	config.DB.Model(&models.Driver{}).Where("id = ?", driverID).Update("current_city", "Chicago")
	w, resp := doJSON(t, r, "GET", "/api/driver/requests/available", driverToken, nil)
	if w.Code != http.StatusOK || resp["count"].(float64) != 0 {
		t.Fatalf("wrong-city driver should see nothing: body %s", w.Body.String())
	}
	if _, gated := resp["reason"]; gated {
		t.Errorf("wrong city is not a gating reason, got %v", resp["reason"])
	}
}
