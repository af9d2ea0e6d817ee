package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带查询参数的URL", "https://www.booking.com/searchresults.html?ss=Seoul", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInputValidation) {
				t.Errorf("错误应包装ErrInputValidation, 得到: %v", err)
			}
		})
	}
}

func TestOriginOf(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"完整URL", "https://www.booking.com/searchresults.html?ss=Seoul", "https://www.booking.com"},
		{"带端口", "http://127.0.0.1:8080/list", "http://127.0.0.1:8080"},
		{"相对路径", "/hotel/kr/abc.html", ""},
		{"空字符串", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OriginOf(tt.url); got != tt.want {
				t.Errorf("OriginOf(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestField(t *testing.T) {
	t.Run("有值字段", func(t *testing.T) {
		f := Present("  Hotel Seoul ")
		v, ok := f.Get()
		if !ok || v != "Hotel Seoul" {
			t.Errorf("Get() = (%q, %v), want (%q, true)", v, ok, "Hotel Seoul")
		}
		if f.OrSentinel() != "Hotel Seoul" {
			t.Errorf("OrSentinel() = %q", f.OrSentinel())
		}
	})

	t.Run("空白视为缺失", func(t *testing.T) {
		f := Present("   ")
		if f.Valid() {
			t.Error("空白字符串不应视为有值")
		}
		if f.OrSentinel() != Unavailable {
			t.Errorf("OrSentinel() = %q, want %q", f.OrSentinel(), Unavailable)
		}
	})

	t.Run("缺失字段", func(t *testing.T) {
		if Missing().Valid() {
			t.Error("Missing()不应有值")
		}
	})
}

func TestRecord_Key(t *testing.T) {
	a := NewRecord(Present("A"), Missing())
	noName := NewRecord(Missing(), Present("https://example.com/a"))

	if a.Key() != "A" {
		t.Errorf("Key() = %q, want %q", a.Key(), "A")
	}
	if noName.Key() != "" {
		t.Errorf("缺失名称的Key应为空字符串, 得到 %q", noName.Key())
	}
	if a.Locator().Valid() {
		t.Error("缺失地址不应有值")
	}
}

func TestToExportRows(t *testing.T) {
	records := []Record{
		NewRecord(Present("A"), Present("https://example.com/a")),
		NewRecord(Missing(), Present("https://example.com/b")),
		NewRecord(Present("C"), Missing()),
	}

	rows := ToExportRows(records)
	want := []ExportRow{
		{Name: "A", URL: "https://example.com/a"},
		{Name: "N/A", URL: "https://example.com/b"},
		{Name: "C", URL: "N/A"},
	}
	if len(rows) != len(want) {
		t.Fatalf("行数 = %d, want %d", len(rows), len(want))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("第%d行 = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestHarvestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    HarvestConfig
		wantErr   bool
		wantInput bool
	}{
		{
			name:    "有效配置",
			config:  HarvestConfig{Quota: 10, Cooldown: time.Minute, MaxRevealRetries: 5},
			wantErr: false,
		},
		{
			name:      "目标数量为0",
			config:    HarvestConfig{Quota: 0},
			wantErr:   true,
			wantInput: true,
		},
		{
			name:      "目标数量为负数",
			config:    HarvestConfig{Quota: -3},
			wantErr:   true,
			wantInput: true,
		},
		{
			name:    "负数重试次数",
			config:  HarvestConfig{Quota: 1, MaxRevealRetries: -1},
			wantErr: true,
		},
		{
			name:    "负数等待时间",
			config:  HarvestConfig{Quota: 1, Cooldown: -time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantInput && !errors.Is(err, ErrInputValidation) {
				t.Errorf("应返回输入校验错误, 得到: %v", err)
			}
		})
	}
}

func TestNewHarvestTask(t *testing.T) {
	config := DefaultHarvestConfig()
	config.Quota = 50

	task, err := NewHarvestTask("https://www.booking.com/searchresults.html", config, EngineRod)
	if err != nil {
		t.Fatalf("NewHarvestTask() error = %v", err)
	}

	if task.ID == "" {
		t.Error("任务ID不应为空")
	}
	if task.Domain != "www.booking.com" {
		t.Errorf("Domain = %v, want %v", task.Domain, "www.booking.com")
	}
	if task.Status != TaskStatusPending {
		t.Errorf("Status = %v, want %v", task.Status, TaskStatusPending)
	}

	task.Start()
	task.Finish(StopQuotaReached, TaskStats{Collected: 50}, nil)
	if task.Status != TaskStatusCompleted {
		t.Errorf("Status = %v, want %v", task.Status, TaskStatusCompleted)
	}
	if task.CompletedAt == nil {
		t.Error("CompletedAt不应为空")
	}

	data, err := task.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("JSON无效: %v", err)
	}
	if decoded["stop_reason"] != string(StopQuotaReached) {
		t.Errorf("stop_reason = %v", decoded["stop_reason"])
	}
}

func TestNewHarvestTask_InvalidInput(t *testing.T) {
	config := DefaultHarvestConfig()

	if _, err := NewHarvestTask("https://example.com", config, EngineRod); !errors.Is(err, ErrInputValidation) {
		t.Errorf("目标数量为0应返回输入校验错误, 得到: %v", err)
	}

	config.Quota = 5
	var inputErr *InputError
	if _, err := NewHarvestTask("example.com", config, EngineRod); !errors.As(err, &inputErr) {
		t.Errorf("无协议URL应返回InputError, 得到: %v", err)
	} else if inputErr.Field != "url" {
		t.Errorf("Field = %q, want %q", inputErr.Field, "url")
	}
}

func TestRevealOutcome_String(t *testing.T) {
	if got := Progressed(StrategyScroll).String(); got != "progressed(scroll)" {
		t.Errorf("String() = %q", got)
	}
	if got := TransientFailure(StrategyClick, "timeout").String(); got != "transient_failure(click): timeout" {
		t.Errorf("String() = %q", got)
	}
}
