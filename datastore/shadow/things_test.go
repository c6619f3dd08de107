/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package shadow

import (
	"context"
	"errors"
	"testing"

	iottypes "github.com/aws/aws-sdk-go-v2/service/iot/types"

	"github.com/suparena/iotgateway/datastore/mock"
	gwerrors "github.com/suparena/iotgateway/errors"
)

func TestListThingsSortedAcrossPages(t *testing.T) {
	client := mock.NewThingRegistry(
		[]iottypes.ThingAttribute{mock.Thing("kitchen", "sensor"), mock.Thing("garage", "camera")},
		[]iottypes.ThingAttribute{mock.Thing("attic", "sensor")},
		[]iottypes.ThingAttribute{mock.Thing("hallway", "sensor")},
	)

	registry, err := NewRegistry(client)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	things, err := registry.ListThings(context.Background())
	if err != nil {
		t.Fatalf("ListThings failed: %v", err)
	}

	want := []string{"attic", "garage", "hallway", "kitchen"}
	if len(things) != len(want) {
		t.Fatalf("Expected %d things, got %d", len(want), len(things))
	}
	for i, name := range want {
		if things[i].ThingName != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, things[i].ThingName)
		}
	}
	if client.Calls() != 3 {
		t.Errorf("Expected 3 listing calls, got %d", client.Calls())
	}

	garage := things[1]
	if garage.ThingTypeName != "camera" || garage.ThingArn == "" || garage.Attributes == nil {
		t.Errorf("Unexpected thing fields %+v", garage)
	}
}

func TestListThingsEmpty(t *testing.T) {
	registry, _ := NewRegistry(mock.NewThingRegistry())

	things, err := registry.ListThings(context.Background())
	if err != nil {
		t.Fatalf("ListThings failed: %v", err)
	}
	if things == nil || len(things) != 0 {
		t.Errorf("Expected empty non-nil result, got %v", things)
	}
}

func TestListThingsError(t *testing.T) {
	registry, _ := NewRegistry(mock.NewThingRegistry().WithError(errors.New("denied")))

	if _, err := registry.ListThings(context.Background()); !gwerrors.IsUpstream(err) {
		t.Fatalf("Expected upstream error, got %v", err)
	}
}
