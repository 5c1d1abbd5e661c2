package data

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/medicineparser/entities"
	"github.com/giygas/medishortage-api/similarity"
)

func testCatalog(n int) *similarity.Index {
	medicines := make([]entities.Medicine, n)
	for i := range medicines {
		medicines[i] = entities.Medicine{
			Name:        fmt.Sprintf("Medicine %d", i),
			Composition: fmt.Sprintf("Ingredient%d (500mg)", i%3),
			DosageMg:    500,
		}
	}
	return similarity.NewIndex(medicines)
}

func TestNewDataContainer(t *testing.T) {
	dc := NewDataContainer()

	if dc.GetCatalog() == nil {
		t.Fatal("Expected a non-nil catalog")
	}
	if dc.GetCatalog().Len() != 0 {
		t.Errorf("Expected empty catalog, got %d medicines", dc.GetCatalog().Len())
	}
	if dc.GetQualityReport() == nil {
		t.Error("Expected a non-nil quality report")
	}
	if !dc.GetLastUpdated().IsZero() {
		t.Error("Expected zero last updated time")
	}
	if dc.IsUpdating() {
		t.Error("Expected not updating")
	}
	if !dc.GetServerStartTime().IsZero() {
		t.Error("Expected zero server start time")
	}
}

func TestZeroValueContainer(t *testing.T) {
	var dc DataContainer

	if dc.GetCatalog() == nil || dc.GetCatalog().Len() != 0 {
		t.Error("Zero value container should expose an empty catalog")
	}
	if dc.GetQualityReport() == nil {
		t.Error("Zero value container should expose a quality report")
	}
	if !dc.GetLastUpdated().IsZero() {
		t.Error("Expected zero last updated time")
	}
}

func TestUpdateData(t *testing.T) {
	dc := NewDataContainer()
	catalog := testCatalog(10)
	report := &interfaces.CatalogQualityReport{TotalMedicines: 10}

	before := time.Now()
	dc.UpdateData(catalog, report)

	if dc.GetCatalog() != catalog {
		t.Error("Expected the new catalog to be active")
	}
	if dc.GetQualityReport() != report {
		t.Error("Expected the new report to be active")
	}
	if dc.GetLastUpdated().Before(before) {
		t.Error("Expected last updated to advance")
	}
}

func TestUpdateDataWithNil(t *testing.T) {
	dc := NewDataContainer()
	catalog := testCatalog(3)
	dc.UpdateData(catalog, nil)

	if dc.GetQualityReport().TotalMedicines != 3 {
		t.Errorf("Expected a default report counting 3 medicines, got %d", dc.GetQualityReport().TotalMedicines)
	}

	dc.UpdateData(nil, nil)
	if dc.GetCatalog() != catalog {
		t.Error("A nil catalog must not replace the active one")
	}
}

func TestBeginUpdateEndUpdate(t *testing.T) {
	dc := NewDataContainer()

	if !dc.BeginUpdate() {
		t.Fatal("First BeginUpdate should succeed")
	}
	if !dc.IsUpdating() {
		t.Error("Expected updating flag")
	}
	if dc.BeginUpdate() {
		t.Error("Second BeginUpdate should fail")
	}

	dc.EndUpdate()
	if dc.IsUpdating() {
		t.Error("Expected updating flag cleared")
	}
	if !dc.BeginUpdate() {
		t.Error("BeginUpdate should succeed after EndUpdate")
	}
}

func TestConcurrentBeginUpdate(t *testing.T) {
	dc := NewDataContainer()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if dc.BeginUpdate() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("Expected exactly one winner, got %d", wins.Load())
	}
}

func TestGetServerStartTime(t *testing.T) {
	dc := NewDataContainer()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dc.SetServerStartTime(start)

	if !dc.GetServerStartTime().Equal(start) {
		t.Errorf("Expected %v, got %v", start, dc.GetServerStartTime())
	}
}

func TestAtomicSwapZeroDowntime(t *testing.T) {
	dc := NewDataContainer()
	dc.UpdateData(testCatalog(5), &interfaces.CatalogQualityReport{TotalMedicines: 5})

	stop := make(chan struct{})
	var inconsistent atomic.Int32
	var wg sync.WaitGroup

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				catalog := dc.GetCatalog()
				if catalog.Len() != 5 && catalog.Len() != 7 {
					inconsistent.Add(1)
				}
				if _, _, err := catalog.FindSimilar("Medicine 1", 3); err != nil {
					inconsistent.Add(1)
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		n := 5
		if i%2 == 0 {
			n = 7
		}
		dc.UpdateData(testCatalog(n), &interfaces.CatalogQualityReport{TotalMedicines: n})
	}
	close(stop)
	wg.Wait()

	if inconsistent.Load() != 0 {
		t.Errorf("Readers observed %d inconsistent catalogs", inconsistent.Load())
	}
}
