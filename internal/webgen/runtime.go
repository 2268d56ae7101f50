package webgen

// The client runtime is assembled from the sections a document needs.
// Names starting with $w_ are internal to the runtime; the mangle pass
// shortens them. Everything reachable from user code hangs off the object the
// runtime returns (rt.state, rt.effect, ...).
//
// Reactivity uses an explicit arena: each effect is registered once under a
// stable id with the state keys it reads, computed at compile time. A write
// to a key queues the effects subscribed to it and one microtask flushes the
// queue in registration order. There is no "currently running effect"
// pointer.

// Runtime module names recorded as compilation dependencies.
const (
	RuntimeCore    = "runtime/core"
	RuntimeLists   = "runtime/lists"
	RuntimeIslands = "runtime/islands"
	RuntimeRouter  = "runtime/router"
	RuntimeActions = "runtime/actions"
	RuntimeStream  = "runtime/stream"
)

const runtimeCore = `var api = {};
var $w_effects = [];
var $w_subs = Object.create(null);
var $w_queue = [];
var $w_queued = Object.create(null);
var $w_flushing = false;
var $w_handlers = Object.create(null);
var $w_fns = Object.create(null);
var $w_rootVars = Object.create(null);
var $w_proxies = new WeakMap();
var $w_values = Object.create(null);

function $w_notify(key) {
  var subs = $w_subs[key];
  if (!subs) return;
  for (var i = 0; i < subs.length; i++) {
    var e = subs[i];
    if (!$w_queued[e.id]) {
      $w_queued[e.id] = true;
      $w_queue.push(e);
    }
  }
  if (!$w_flushing) {
    $w_flushing = true;
    Promise.resolve().then($w_flush);
  }
}

function $w_flush() {
  for (var i = 0; i < $w_queue.length; i++) {
    if (i > 10000) {
      console.error("[webc] effects did not settle");
      break;
    }
    var e = $w_queue[i];
    $w_queued[e.id] = false;
    $w_run(e);
  }
  $w_queue = [];
  $w_flushing = false;
}

function $w_run(e) {
  try {
    e.fn();
  } catch (err) {
    console.error("[webc] effect " + e.id + " failed", err);
  }
}

function $w_wrap(value, key) {
  if (value === null || typeof value !== "object") return value;
  var cached = $w_proxies.get(value);
  if (cached) return cached;
  var proxy = new Proxy(value, {
    get: function (t, p) {
      if (p === "$w_raw") return t;
      return $w_wrap(t[p], key);
    },
    set: function (t, p, v) {
      if (v && v.$w_raw) v = v.$w_raw;
      if (t[p] !== v || (Array.isArray(t) && p === "length")) {
        t[p] = v;
        $w_notify(key);
      }
      return true;
    },
    deleteProperty: function (t, p) {
      delete t[p];
      $w_notify(key);
      return true;
    }
  });
  $w_proxies.set(value, proxy);
  return proxy;
}

for (var $w_key in initial) $w_values[$w_key] = initial[$w_key];

api.state = new Proxy($w_values, {
  get: function (t, p) {
    return $w_wrap(t[p], p);
  },
  set: function (t, p, v) {
    if (v && v.$w_raw) v = v.$w_raw;
    if (t[p] === v) return true;
    t[p] = v;
    $w_notify(p);
    return true;
  }
});

api.effect = function (id, keys, fn) {
  var e = { id: id, fn: fn };
  $w_effects.push(e);
  for (var i = 0; i < keys.length; i++) {
    (($w_subs[keys[i]]) || ($w_subs[keys[i]] = [])).push(e);
  }
};

api.fn = function (id, fn) {
  $w_fns[id] = fn;
};

function $w_call(id, vars) {
  var fn = $w_fns[id];
  if (!fn) return undefined;
  try {
    return fn(vars);
  } catch (err) {
    console.error("[webc] expression " + id + " failed", err);
    return undefined;
  }
}

function $w_one(attr, id) {
  return root.querySelector("[" + attr + "=\"" + id + "\"]");
}

function $w_str(v) {
  if (v == null) return "";
  if (typeof v === "object" && !Array.isArray(v)) return JSON.stringify(v);
  return String(v);
}

function $w_setAttr(el, name, v) {
  if (name === "class" && v && typeof v === "object") {
    v = Array.isArray(v) ? v.filter(Boolean).join(" ") : Object.keys(v).filter(function (k) { return v[k]; }).join(" ");
  } else if (name === "style" && v && typeof v === "object") {
    v = Object.keys(v).map(function (k) { return k + ":" + v[k]; }).join(";");
  }
  if (name === "checked") el.checked = !!v;
  if (name === "value") el.value = $w_str(v);
  if (v === false || v == null) el.removeAttribute(name);
  else el.setAttribute(name, v === true ? "" : $w_str(v));
}

api.text = function (id, v) {
  var el = $w_one("data-bind", id);
  if (el) el.textContent = $w_str(v);
};

api.attr = function (id, name, v) {
  var el = $w_one("data-wid", id);
  if (el) $w_setAttr(el, name, v);
};

api.show = function (id, v) {
  var el = $w_one("data-if", id);
  if (el) el.style.display = v ? "contents" : "none";
};

api.handler = function (id, fn, opts) {
  $w_handlers[id] = { fn: fn, once: !!(opts && opts.once), done: new WeakSet() };
};

function $w_varsOf(el) {
  for (var n = el; n; n = n.parentNode) {
    if (n.$w_vars) return n.$w_vars;
  }
  return $w_rootVars;
}

function $w_dispatch(type, ev) {
  if (ev.$w_done) return;
  ev.$w_done = true;
  var sel = "[data-on-" + type + "]";
  var el = ev.target && ev.target.closest ? ev.target.closest(sel) : null;
  while (el && root.contains(el)) {
    var h = $w_handlers[el.getAttribute("data-on-" + type)];
    if (h && !(h.once && h.done.has(el))) {
      if (h.once) h.done.add(el);
      h.fn.call(el, ev, el, $w_varsOf(el));
    }
    if (ev.cancelBubble) break;
    el = el.parentElement ? el.parentElement.closest(sel) : null;
  }
}

var $w_capture = { focus: true, blur: true, mouseenter: true, mouseleave: true, load: true, error: true, scroll: true };

function $w_listen(target, types) {
  types.forEach(function (type) {
    target.addEventListener(type, function (ev) { $w_dispatch(type, ev); }, !!$w_capture[type]);
  });
}

api.delegate = function (types) {
  $w_listen(root, types);
};

api.start = function () {
  for (var i = 0; i < $w_effects.length; i++) $w_run($w_effects[i]);
};
`

const runtimeLists = `var $w_lists = Object.create(null);

api.list = function (id, keys, fn, item, index) {
  $w_lists[id] = { fn: fn, item: item, index: index };
  if (!keys) return;
  api.effect(id, keys, function () {
    var tpl = $w_one("data-for", id);
    if (tpl) $w_render(tpl, $w_rootVars);
  });
};

function $w_each(scope, sel, fn) {
  Array.prototype.forEach.call(scope.querySelectorAll(sel), fn);
}

function $w_path(vars, path) {
  var parts = path.split(".");
  var v = vars[parts[0]];
  for (var i = 1; i < parts.length && v != null; i++) v = v[parts[i]];
  return v;
}

function $w_fill(frag, vars) {
  $w_each(frag, "[data-item]", function (el) {
    el.textContent = $w_str($w_path(vars, el.getAttribute("data-item")));
  });
  $w_each(frag, "[data-item-fn]", function (el) {
    el.textContent = $w_str($w_call(el.getAttribute("data-item-fn"), vars));
  });
  $w_each(frag, "[data-item-if]", function (el) {
    el.style.display = $w_call(el.getAttribute("data-item-if"), vars) ? "contents" : "none";
  });
  $w_each(frag, "[data-item-attrs]", function (el) {
    el.getAttribute("data-item-attrs").split(";").forEach(function (pair) {
      var eq = pair.indexOf("=");
      $w_setAttr(el, pair.slice(0, eq), $w_call(pair.slice(eq + 1), vars));
    });
  });
  $w_each(frag, "template[data-for]", function (tpl) {
    $w_render(tpl, vars);
  });
}

function $w_render(tpl, vars) {
  var spec = $w_lists[tpl.getAttribute("data-for")];
  if (!spec) return;
  var old = tpl.$w_rows || [];
  for (var i = 0; i < old.length; i++) {
    if (old[i].parentNode) old[i].parentNode.removeChild(old[i]);
  }
  var items;
  try {
    items = spec.fn(vars);
  } catch (err) {
    console.error("[webc] list " + tpl.getAttribute("data-for") + " failed", err);
    items = [];
  }
  if (typeof items === "number") {
    var n = items;
    items = [];
    for (var j = 0; j < n; j++) items.push(j);
  }
  items = items ? Array.prototype.slice.call(items) : [];
  var rows = [];
  var anchor = tpl;
  items.forEach(function (item, index) {
    var rowVars = Object.create(vars);
    rowVars[spec.item] = item;
    if (spec.index) rowVars[spec.index] = index;
    var frag = tpl.content.cloneNode(true);
    var nodes = Array.prototype.slice.call(frag.childNodes);
    nodes.forEach(function (n) { n.$w_vars = rowVars; });
    $w_fill(frag, rowVars);
    var added = Array.prototype.slice.call(frag.childNodes);
    anchor.parentNode.insertBefore(frag, anchor.nextSibling);
    if (added.length) anchor = added[added.length - 1];
    rows = rows.concat(added);
  });
  tpl.$w_rows = rows;
}
`

const runtimeIslands = `api.islands = function (types) {
  var hydrated = new WeakSet();
  function hydrate(el) {
    if (hydrated.has(el)) return;
    hydrated.add(el);
    $w_listen(el, types);
  }
  var els = root.querySelectorAll("[data-island]");
  if (typeof IntersectionObserver !== "function") {
    Array.prototype.forEach.call(els, hydrate);
    return;
  }
  var io = new IntersectionObserver(function (entries) {
    entries.forEach(function (entry) {
      if (!entry.isIntersecting) return;
      io.unobserve(entry.target);
      hydrate(entry.target);
    });
  });
  Array.prototype.forEach.call(els, function (el) { io.observe(el); });
};
`

const runtimeRouter = `function $w_navigate(url, push) {
  fetch(url, { headers: { "X-Webc-Navigate": "1" } }).then(function (res) {
    return res.text();
  }).then(function (html) {
    var doc = new DOMParser().parseFromString(html, "text/html");
    var next = doc.getElementById("app");
    var current = document.getElementById("app");
    if (!next || !current) {
      location.assign(url);
      return;
    }
    if (push) history.pushState(null, "", url);
    document.title = doc.title;
    current.replaceWith(document.importNode(next, true));
    Array.prototype.forEach.call(doc.querySelectorAll("body script"), function (old) {
      var s = document.createElement("script");
      if (old.src) s.src = old.src;
      else s.textContent = old.textContent;
      document.body.appendChild(s);
    });
  }).catch(function () {
    location.assign(url);
  });
}

api.router = function () {
  if (window.$w_routed || !window.history || !window.fetch) return;
  window.$w_routed = true;
  document.addEventListener("click", function (ev) {
    if (ev.defaultPrevented || ev.button !== 0 || ev.metaKey || ev.ctrlKey || ev.shiftKey || ev.altKey) return;
    var a = ev.target && ev.target.closest ? ev.target.closest("a[href]") : null;
    if (!a || a.target || a.hasAttribute("download") || a.origin !== location.origin) return;
    ev.preventDefault();
    $w_navigate(a.href, true);
  });
  window.addEventListener("popstate", function () {
    $w_navigate(location.href, false);
  });
};
`

const runtimeActions = `api.call = function (endpoint, args) {
  return fetch(endpoint, {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify({ args: args })
  }).then(function (res) {
    if (!res.ok) throw new Error(endpoint + ": " + res.status);
    return res.json();
  }).then(function (body) {
    return body.result;
  });
};
`

const streamBrowserStub = `(function () {
  function $w_swap(tpl) {
    var target = document.getElementById(tpl.getAttribute("data-chunk"));
    if (target) target.replaceWith(tpl.content.cloneNode(true));
    tpl.remove();
  }
  Array.prototype.forEach.call(document.querySelectorAll("template[data-chunk]"), $w_swap);
  new MutationObserver(function (records) {
    records.forEach(function (r) {
      r.addedNodes.forEach(function (n) {
        if (n.nodeType === 1 && n.matches("template[data-chunk]")) $w_swap(n);
      });
    });
  }).observe(document.documentElement, { childList: true, subtree: true });
})();
`

const streamNodeStub = `export function renderToStream(write) {
  var cut = markup.indexOf("</head>");
  if (cut < 0) {
    write(markup);
    return;
  }
  write(markup.slice(0, cut + 7));
  write(markup.slice(cut + 7));
}
`

const serverActionsFooter = `export async function handle(endpoint, body) {
  var action = actions[endpoint];
  if (!action) throw new Error("unknown action " + endpoint);
  return { result: await action.apply(null, (body && body.args) || []) };
}
`
