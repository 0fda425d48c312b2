package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// bindingName is the runtime binding the in-page mutation observer calls.
const bindingName = "cvaAutofillMutation"

// helperJS installs window.__cva once per document. Elements are kept in an
// in-page registry and addressed by handle; nothing but plain JSON crosses
// the protocol boundary.
const helperJS = `(() => {
  if (window.__cva) return;
  const els = [];
  const ids = new WeakMap();
  const SKIP = new Set(["hidden", "submit", "button", "reset", "image", "file", "checkbox", "radio", "range", "color"]);
  const clean = (s) => String(s || "").replace(/\s+/g, " ").trim();
  const handleOf = (el) => {
    if (!ids.has(el)) { els.push(el); ids.set(el, "el-" + els.length); }
    return ids.get(el);
  };
  const byHandle = (h) => els[Number(String(h).slice(3)) - 1] || null;
  const visible = (el) => {
    const st = getComputedStyle(el);
    if (st.display === "none" || st.visibility === "hidden") return false;
    const r = el.getBoundingClientRect();
    return r.width > 0 && r.height > 0;
  };
  const textOf = (el) => {
    if (!el) return "";
    const c = el.cloneNode(true);
    c.querySelectorAll("input, select, textarea, script, style, button").forEach((n) => n.remove());
    return clean(c.textContent);
  };
  const labelOf = (el) => {
    if (el.id) {
      const l = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
      const t = textOf(l);
      if (t) return t;
    }
    return textOf(el.closest("label"));
  };
  const labelledBy = (el) => clean((el.getAttribute("aria-labelledby") || "").split(/\s+/).filter(Boolean)
    .map((id) => textOf(document.getElementById(id))).join(" "));
  const nearby = (el) => {
    let cur = el;
    for (let lvl = 0; lvl <= 3 && cur; lvl++) {
      for (let s = cur.previousSibling; s; s = s.previousSibling) {
        const t = s.nodeType === 3 ? clean(s.textContent) : (s.nodeType === 1 ? textOf(s) : "");
        if (t) return t.slice(0, 120).trim();
      }
      cur = cur.parentElement;
      if (cur && (cur.tagName === "FORM" || cur.tagName === "BODY")) break;
    }
    return "";
  };
  const depth = (el) => {
    let d = 0;
    for (let p = el.parentElement; p; p = p.parentElement) {
      if (p.tagName === "FORM" || p.tagName === "BODY") return d;
      d++;
    }
    return d;
  };
  const valueOf = (el) => (el.value == null ? "" : String(el.value));
  const fillable = (el) => {
    if (el.disabled || el.readOnly) return false;
    if (el.tagName === "INPUT") return !SKIP.has((el.getAttribute("type") || "text").toLowerCase());
    return true;
  };
  window.__cva = {
    scan(scope) {
      const root = scope ? document.querySelector(scope) : document;
      if (!root) throw new Error("scope " + scope + " matches nothing");
      return Array.from(root.querySelectorAll("input, select, textarea"))
        .filter((el) => fillable(el) && visible(el))
        .map((el) => ({
          handle: handleOf(el),
          tag: el.tagName.toLowerCase(),
          input_type: el.tagName === "INPUT" ? (el.getAttribute("type") || "text").toLowerCase() : "",
          name: el.getAttribute("name") || "",
          id: el.id || "",
          label: labelOf(el),
          placeholder: clean(el.getAttribute("placeholder")),
          aria_label: clean(el.getAttribute("aria-label")) || labelledBy(el),
          autocomplete: clean(el.getAttribute("autocomplete")).toLowerCase(),
          nearby_text: nearby(el),
          value: valueOf(el),
          form_depth: depth(el),
        }));
    },
    value(h) {
      const el = byHandle(h);
      if (!el) throw new Error("unknown element handle " + h);
      return valueOf(el);
    },
    attached(h) {
      const el = byHandle(h);
      return !!el && el.isConnected;
    },
    write(h, v) {
      const el = byHandle(h);
      if (!el) return { ok: false, from: "", to: "", error: "unknown element handle" };
      if (!el.isConnected) return { ok: false, from: "", to: "", error: "element is detached" };
      const from = valueOf(el);
      try {
        if (el.tagName === "SELECT") {
          const want = String(v).trim();
          const opt = Array.from(el.options).find((o) => o.value === want || clean(o.textContent).toLowerCase() === want.toLowerCase());
          if (!opt) return { ok: false, from, to: "", error: 'no option matches "' + v + '"' };
          v = opt.value;
        }
        const desc = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), "value");
        if (desc && desc.set) desc.set.call(el, v); else el.value = v;
        el.dispatchEvent(new Event("input", { bubbles: true }));
        el.dispatchEvent(new Event("change", { bubbles: true }));
        return { ok: true, from, to: valueOf(el) };
      } catch (e) {
        return { ok: false, from, to: "", error: String((e && e.message) || e) };
      }
    },
    observe(binding) {
      if (window.__cvaObserver) return true;
      const fire = () => { try { window[binding](""); } catch (e) {} };
      const mo = new MutationObserver(fire);
      mo.observe(document.documentElement || document.body, {
        subtree: true, childList: true, characterData: true, attributes: true, attributeFilter: ["value"],
      });
      document.addEventListener("input", fire, true);
      document.addEventListener("change", fire, true);
      window.__cvaObserver = { mo, fire };
      return true;
    },
    unobserve() {
      const o = window.__cvaObserver;
      if (!o) return true;
      o.mo.disconnect();
      document.removeEventListener("input", o.fire, true);
      document.removeEventListener("change", o.fire, true);
      window.__cvaObserver = null;
      return true;
    },
    frame() {
      return { href: location.href, frame: window.top === window ? "top" : "iframe" };
    },
  };
})();
`

// call builds an expression that installs the helper and invokes method
// with JSON-encoded arguments.
func call(method string, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("failed to encode argument for %s: %w", method, err)
		}
		encoded = append(encoded, string(b))
	}
	return fmt.Sprintf("%s\nwindow.__cva.%s(%s)", helperJS, method, strings.Join(encoded, ", ")), nil
}
