package domain

import (
	"encoding/json"
	"fmt"
)

// Outbound 路由文档中的一个出站：协议叶子、策略组或终端动作。
// 已知字段之外的内容原样保留在 Extra 中，保证文档能无损回写。
type Outbound struct {
	Tag       string       `json:"-"`
	Type      OutboundType `json:"-"`
	Outbounds []string     `json:"-"`
	Default   string       `json:"-"`
	Detour    string       `json:"-"`

	Extra map[string]json.RawMessage `json:"-"`
}

// IsGroup 是否为策略组（selector/urltest/loadbalance）
func (o *Outbound) IsGroup() bool {
	return IsGroupType(o.Type)
}

// IsTerminal 是否为终端出站（direct/block/dns）
func (o *Outbound) IsTerminal() bool {
	return IsTerminalType(o.Type)
}

func (o *Outbound) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pluckString := func(key string, dst *string) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("outbound field %q: %w", key, err)
		}
		delete(raw, key)
		return nil
	}

	var typ string
	if err := pluckString("tag", &o.Tag); err != nil {
		return err
	}
	if err := pluckString("type", &typ); err != nil {
		return err
	}
	o.Type = OutboundType(typ)
	if err := pluckString("default", &o.Default); err != nil {
		return err
	}
	if err := pluckString("detour", &o.Detour); err != nil {
		return err
	}

	if v, ok := raw["outbounds"]; ok {
		if err := json.Unmarshal(v, &o.Outbounds); err != nil {
			return fmt.Errorf("outbound field %q: %w", "outbounds", err)
		}
		delete(raw, "outbounds")
	}

	o.Extra = raw
	return nil
}

func (o *Outbound) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(o.Extra)+5)
	for k, v := range o.Extra {
		out[k] = v
	}

	putString := func(key, val string) error {
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		out[key] = b
		return nil
	}

	if err := putString("tag", o.Tag); err != nil {
		return nil, err
	}
	if err := putString("type", string(o.Type)); err != nil {
		return nil, err
	}
	if o.Default != "" {
		if err := putString("default", o.Default); err != nil {
			return nil, err
		}
	}
	if o.Detour != "" {
		if err := putString("detour", o.Detour); err != nil {
			return nil, err
		}
	}
	if o.Outbounds != nil {
		b, err := json.Marshal(o.Outbounds)
		if err != nil {
			return nil, err
		}
		out["outbounds"] = b
	}

	return json.Marshal(out)
}

// RoutingDocument 已解析的路由配置。只有 outbounds 会被本服务改写；
// log/dns/inbounds/route 等其余顶层字段原样透传。
type RoutingDocument struct {
	Outbounds []*Outbound                `json:"-"`
	Extra     map[string]json.RawMessage `json:"-"`
}

func (d *RoutingDocument) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["outbounds"]; ok {
		if err := json.Unmarshal(v, &d.Outbounds); err != nil {
			return fmt.Errorf("document field %q: %w", "outbounds", err)
		}
		delete(raw, "outbounds")
	}

	d.Extra = raw
	return nil
}

func (d *RoutingDocument) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra)+1)
	for k, v := range d.Extra {
		out[k] = v
	}

	outbounds := d.Outbounds
	if outbounds == nil {
		outbounds = []*Outbound{}
	}
	b, err := json.Marshal(outbounds)
	if err != nil {
		return nil, err
	}
	out["outbounds"] = b

	return json.Marshal(out)
}

// TagIndex 重建 tag → outbound 索引。
// 出站列表可能达到数千条；改写/解析阶段依赖该索引避免反复线性扫描。
func (d *RoutingDocument) TagIndex() map[string]*Outbound {
	index := make(map[string]*Outbound, len(d.Outbounds))
	for _, ob := range d.Outbounds {
		if ob == nil || ob.Tag == "" {
			continue
		}
		if _, ok := index[ob.Tag]; ok {
			continue
		}
		index[ob.Tag] = ob
	}
	return index
}
