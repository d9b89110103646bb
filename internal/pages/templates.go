package pages

// frameSandbox is the sandbox policy of the embedded storefront.
const frameSandbox = "allow-scripts allow-same-origin allow-forms allow-popups allow-downloads allow-modals allow-top-navigation-by-user-activation"

// shellTemplate is the html/template for every deep link.
const shellTemplate = `<!DOCTYPE html>
<html lang="tr" class="h-full">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="theme-color" content="#111111">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<link rel="manifest" href="/manifest.webmanifest">
<style>
html, body { height: 100%; margin: 0; font-family: system-ui, -apple-system, sans-serif; }
body { display: flex; flex-direction: column; background: #fff; }
main { position: relative; flex: 1; }
#faylit-frame { position: absolute; inset: 0; width: 100%; height: 100%; border: 0; }
#loader { position: absolute; inset: 0; display: flex; align-items: center; justify-content: center; background: rgba(255,255,255,.7); }
#loader[hidden] { display: none; }
#loader span { width: 32px; height: 32px; border: 3px solid #ddd; border-top-color: #111; border-radius: 50%; animation: spin .8s linear infinite; }
@keyframes spin { to { transform: rotate(360deg); } }
nav { display: flex; height: 64px; border-top: 1px solid #e5e5e5; background: #fff; }
nav button { flex: 1; display: flex; flex-direction: column; align-items: center; justify-content: center; gap: 2px; border: 0; background: none; color: #777; font-size: 11px; }
nav button.active { color: #111; font-weight: 600; }
nav svg { width: 22px; height: 22px; }
#promo { max-width: 320px; border: 0; border-radius: 12px; padding: 20px; }
#promo::backdrop { background: rgba(0,0,0,.45); }
#promo menu { display: flex; gap: 8px; justify-content: flex-end; padding: 0; margin: 16px 0 0; }
#toasts { position: fixed; left: 12px; right: 12px; bottom: 76px; display: flex; flex-direction: column; gap: 8px; pointer-events: none; }
.toast { padding: 10px 14px; border-radius: 8px; background: #111; color: #fff; font-size: 13px; }
.toast-error { background: #b91c1c; }
.toast strong { display: block; }
</style>
</head>
<body data-initial-path="{{.InitialPath}}" data-ws="{{.WSPath}}">
<main>
<iframe id="faylit-frame" title="Faylit" sandbox="{{.Sandbox}}" allow="clipboard-write; payment"></iframe>
<div id="loader" role="status" aria-label="Yükleniyor"><span></span></div>
</main>
<nav aria-label="Ana menü">
{{- range .Nav}}
<button type="button" data-nav-index="{{.Index}}" data-testid="{{.TestID}}"{{if .Active}} class="active" aria-current="page"{{end}}>{{icon .Icon}}<span>{{.Label}}</span></button>
{{- end}}
</nav>
{{- with .Promo}}
<dialog id="promo" data-promo-id="{{.ID}}">
<h2>{{.Title}}</h2>
{{.Body}}
<menu>
<button type="button" data-promo-close>Kapat</button>
{{- if .CTAPath}}
<button type="button" data-promo-cta="{{.CTAPath}}">Keşfet</button>
{{- end}}
</menu>
</dialog>
{{- end}}
<div id="toasts" aria-live="polite"></div>
<script src="/shell.js" defer></script>
</body>
</html>
`

// icons are inline SVGs for the navigation items, keyed by Item.Icon.
var icons = map[string]string{
	"home":          `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2"><path d="M3 10.5 12 3l9 7.5V21h-6v-6H9v6H3z"/></svg>`,
	"shopping-cart": `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2"><circle cx="9" cy="20" r="1.5"/><circle cx="18" cy="20" r="1.5"/><path d="M2 3h3l2.7 12.4a2 2 0 0 0 2 1.6h7.6a2 2 0 0 0 2-1.6L21 7H6"/></svg>`,
	"percent":       `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2"><path d="M19 5 5 19"/><circle cx="6.5" cy="6.5" r="2.5"/><circle cx="17.5" cy="17.5" r="2.5"/></svg>`,
	"user":          `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2"><circle cx="12" cy="8" r="4"/><path d="M4 21a8 8 0 0 1 16 0"/></svg>`,
}

// shellScript relays frame events to the server over the bridge websocket and
// executes the commands it sends back.
const shellScript = `(function () {
  'use strict';

  var body = document.body;
  var frame = document.getElementById('faylit-frame');
  var loader = document.getElementById('loader');
  var toasts = document.getElementById('toasts');
  var buttons = document.querySelectorAll('[data-nav-index]');
  var promo = document.getElementById('promo');

  var generation = 0;
  var rendered = 0;
  var lastPath = body.dataset.initialPath || '';
  var socket = null;
  var retry = 1000;

  function send(msg) {
    if (socket && socket.readyState === WebSocket.OPEN) {
      socket.send(JSON.stringify(msg));
    }
  }

  function connect() {
    var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
    socket = new WebSocket(proto + '//' + location.host + body.dataset.ws);
    socket.onopen = function () {
      retry = 1000;
      rendered = 0;
      send({ type: 'ready', path: lastPath });
    };
    socket.onmessage = function (ev) {
      var msg;
      try { msg = JSON.parse(ev.data); } catch (e) { return; }
      handle(msg);
    };
    socket.onclose = function () {
      setTimeout(connect, retry);
      retry = Math.min(retry * 2, 30000);
    };
  }

  function handle(msg) {
    switch (msg.type) {
      case 'navigate':
        generation = msg.generation;
        if (msg.mode === 'in_place') {
          try {
            frame.contentWindow.location.replace(msg.target);
          } catch (e) {
            frame.src = msg.target;
          }
        } else {
          frame.src = msg.target;
        }
        break;
      case 'state':
        render(msg.snapshot, msg.nav || []);
        break;
      case 'open_external':
        window.open(msg.url, '_blank', 'noopener');
        break;
      case 'notice':
        toast(msg.kind, msg.title, msg.message);
        break;
      case 'call':
        call(msg);
        break;
    }
  }

  function render(snapshot, nav) {
    if (snapshot.generation < rendered) return;
    rendered = snapshot.generation;
    loader.hidden = !snapshot.loading;
    lastPath = snapshot.observed_path;
    nav.forEach(function (item) {
      var btn = buttons[item.index];
      if (!btn) return;
      btn.classList.toggle('active', item.active);
      if (item.active) {
        btn.setAttribute('aria-current', 'page');
      } else {
        btn.removeAttribute('aria-current');
      }
    });
  }

  function toast(kind, title, message) {
    var el = document.createElement('div');
    el.className = 'toast toast-' + kind;
    var strong = document.createElement('strong');
    strong.textContent = title;
    var p = document.createElement('span');
    p.textContent = message;
    el.appendChild(strong);
    el.appendChild(p);
    toasts.appendChild(el);
    setTimeout(function () { el.remove(); }, 5000);
  }

  function base64ToBytes(s) {
    var raw = atob(s);
    var out = new Uint8Array(raw.length);
    for (var i = 0; i < raw.length; i++) {
      out[i] = raw.charCodeAt(i);
    }
    return out;
  }

  var methods = {
    capabilities: function () {
      return Promise.resolve({
        notifications: 'Notification' in window,
        serviceWorker: 'serviceWorker' in navigator,
        pushManager: 'PushManager' in window
      });
    },
    registerWorker: function (params) {
      return navigator.serviceWorker.register(params.url, { scope: '/' })
        .then(function () { return navigator.serviceWorker.ready; })
        .then(function () { return true; });
    },
    permission: function () {
      return Promise.resolve(Notification.permission);
    },
    requestPermission: function () {
      return Notification.requestPermission();
    },
    subscribe: function (params) {
      return navigator.serviceWorker.ready
        .then(function (reg) {
          return reg.pushManager.subscribe({
            userVisibleOnly: true,
            applicationServerKey: base64ToBytes(params.key)
          });
        })
        .then(function (sub) { return sub.toJSON(); });
    }
  };

  function call(msg) {
    var fn = methods[msg.method];
    var result = fn ? Promise.resolve().then(function () { return fn(msg.params || {}); })
                    : Promise.reject(new Error('unknown method ' + msg.method));
    result.then(function (value) {
      send({ type: 'reply', id: msg.id, result: value === undefined ? null : value });
    }, function (err) {
      send({ type: 'reply', id: msg.id, error: String((err && err.message) || err) });
    });
  }

  frame.addEventListener('load', function () {
    var href = null;
    try {
      href = frame.contentWindow.location.href;
    } catch (e) {}
    send({ type: 'load', generation: generation, href: href });
  });

  buttons.forEach(function (btn) {
    btn.addEventListener('click', function () {
      send({ type: 'nav', index: Number(btn.dataset.navIndex) });
    });
  });

  if (promo) {
    var dismiss = function () {
      promo.close();
      fetch('/api/promo/dismiss', { method: 'POST' });
    };
    promo.querySelector('[data-promo-close]').addEventListener('click', dismiss);
    var cta = promo.querySelector('[data-promo-cta]');
    if (cta) {
      cta.addEventListener('click', function () {
        dismiss();
        send({ type: 'go', path: cta.dataset.promoCta });
      });
    }
    promo.showModal();
  }

  connect();
})();
`

// workerScript is the service worker served at /sw.js.
const workerScript = `self.addEventListener('install', function () {
  self.skipWaiting();
});

self.addEventListener('activate', function (event) {
  event.waitUntil(self.clients.claim());
});

self.addEventListener('push', function (event) {
  var data = { title: 'Yeni Bildirim', body: 'Faylit\'ten yeni bir mesajınız var!' };
  if (event.data) {
    try {
      var parsed = event.data.json();
      data.title = parsed.title || data.title;
      data.body = parsed.body || data.body;
      data.url = parsed.url;
    } catch (e) {
      data.body = event.data.text();
    }
  }

  event.waitUntil(self.registration.showNotification(data.title, {
    body: data.body,
    icon: '/favicon.ico',
    badge: '/favicon.ico',
    data: { url: data.url }
  }));
});

self.addEventListener('notificationclick', function (event) {
  event.notification.close();
  var scope = self.registration.scope;
  var target = scope;
  if (event.notification.data && event.notification.data.url) {
    target = new URL(event.notification.data.url, scope).href;
  }

  event.waitUntil(
    self.clients.matchAll({ type: 'window', includeUncontrolled: true }).then(function (windows) {
      for (var i = 0; i < windows.length; i++) {
        var client = windows[i];
        if (client.url === target && 'focus' in client) {
          return client.focus();
        }
      }
      if (self.clients.openWindow) {
        return self.clients.openWindow(target);
      }
    })
  );
});
`
